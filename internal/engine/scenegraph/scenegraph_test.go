package scenegraph

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestWorldTransformHierarchy(t *testing.T) {
	root := NewNode("root")
	root.Translation = math.Vec3{X: 1}
	child := NewNode("child")
	child.Translation = math.Vec3{Y: 2}
	child.SetUniformScale(0.5)
	leaf := NewNode("leaf")
	leaf.Translation = math.Vec3{Z: 4}

	root.Add(child)
	child.Add(leaf)
	root.UpdateWorld(math.Identity())

	got := leaf.WorldPosition()
	want := math.Vec3{X: 1, Y: 2, Z: 2}
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Z, want.Z) {
		t.Errorf("leaf world = %+v, want %+v", got, want)
	}
}

func TestChildPath(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	root.Add(a)
	a.Add(b)

	if n, ok := root.Child(0, 0); !ok || n != b {
		t.Errorf("Child(0,0) = %v, %v", n, ok)
	}
	if n, ok := root.Child(); !ok || n != root {
		t.Error("empty path should return the node itself")
	}
	if _, ok := root.Child(0, 1); ok {
		t.Error("out-of-range path should fail")
	}
	if _, ok := root.Child(-1); ok {
		t.Error("negative index should fail")
	}
}

func TestAddReparents(t *testing.T) {
	p1 := NewNode("p1")
	p2 := NewNode("p2")
	c := NewNode("c")
	p1.Add(c)
	p2.Add(c)

	if len(p1.Children()) != 0 {
		t.Errorf("p1 still has %d children", len(p1.Children()))
	}
	if c.Parent() != p2 {
		t.Error("parent not updated")
	}
}

func TestSceneAddOnce(t *testing.T) {
	s := NewScene()
	n := NewNode("bg")
	s.Add(n)
	s.Add(n)
	s.Add(nil)
	if len(s.Roots()) != 1 {
		t.Errorf("roots = %d, want 1", len(s.Roots()))
	}
	if !s.Contains(n) {
		t.Error("Contains = false")
	}
}

func TestFindByID(t *testing.T) {
	s := NewScene()
	group := NewNode("markers")
	m := NewSpriteNode("sphereLabel2", NewMaterial("icon"), 0.04)
	group.Add(NewSpriteNode("sphereLabel1", NewMaterial("icon"), 0.04))
	group.Add(m)
	s.Add(group)

	if got := s.FindByID("sphereLabel2"); got != m {
		t.Errorf("FindByID = %v", got)
	}
	if got := s.FindByID("missing"); got != nil {
		t.Errorf("FindByID(missing) = %v", got)
	}
}

func TestVisibleInWorld(t *testing.T) {
	root := NewNode("root")
	child := NewNode("child")
	root.Add(child)
	if !child.VisibleInWorld() {
		t.Error("expected visible")
	}
	root.Visible = false
	if child.VisibleInWorld() {
		t.Error("hidden parent should hide child")
	}
}

func TestSphereGeometry(t *testing.T) {
	p := SphereGeometry(500, 60, 40)

	if got, want := len(p.Positions), 61*41; got != want {
		t.Errorf("vertices = %d, want %d", got, want)
	}
	// Pole rows contribute one triangle per segment, the rest two.
	if got, want := p.TriangleCount(), 60*(40*2-2); got != want {
		t.Errorf("triangles = %d, want %d", got, want)
	}
	for i, v := range p.Positions {
		if l := math.V3(v).Length(); !near(l/500, 1) {
			t.Fatalf("vertex %d at radius %f", i, l)
		}
	}
	if !near(p.Bounds.Max.Y, 500) || !near(p.Bounds.Min.Y, -500) {
		t.Errorf("bounds = %+v", p.Bounds)
	}
}

// faceNormal returns the counter-clockwise normal of triangle i.
func faceNormal(p *Primitive, i int) (math.Vec3, math.Vec3) {
	a, b, c := p.Triangle(i)
	pa, pb, pc := math.V3(p.Positions[a]), math.V3(p.Positions[b]), math.V3(p.Positions[c])
	n := pb.Sub(pa).Cross(pc.Sub(pa))
	center := pa.Add(pb).Add(pc).Scale(1.0 / 3)
	return n, center
}

func TestSphereFacesOutwardThenInward(t *testing.T) {
	p := SphereGeometry(500, 60, 40)
	for i := 0; i < p.TriangleCount(); i += 97 {
		n, c := faceNormal(p, i)
		if n.Dot(c) <= 0 {
			t.Fatalf("triangle %d faces inward before scaling", i)
		}
	}

	p.ApplyScale(-0.1, 0.1, 0.1)
	if !near(p.Bounds.Max.Y, 50) {
		t.Errorf("scaled radius = %f, want 50", p.Bounds.Max.Y)
	}
	for i := 0; i < p.TriangleCount(); i += 97 {
		n, c := faceNormal(p, i)
		if n.Dot(c) >= 0 {
			t.Fatalf("triangle %d faces outward after mirrored scale", i)
		}
	}
}

func TestApplySkin(t *testing.T) {
	joint := NewNode("bone")
	joint.Translation = math.Vec3{Y: 2}
	meshNode := NewMeshNode("body", &Mesh{Primitives: []*Primitive{{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}},
		Normals:   [][3]float32{{0, 1, 0}, {0, 1, 0}},
		Joints:    [][4]uint16{{0, 0, 0, 0}, {0, 0, 0, 0}},
		Weights:   [][4]float32{{1, 0, 0, 0}, {0.5, 0, 0, 0}},
	}}})
	meshNode.Skin = &Skin{Joints: []*Node{joint}, InverseBind: []math.Mat4{math.Identity()}}

	s := NewScene()
	s.Add(joint)
	s.Add(meshNode)
	s.UpdateWorld()
	s.UpdateSkins()

	prim := meshNode.Mesh.Primitives[0]
	got := prim.CurrentPositions()
	if !near(got[0][1], 2) {
		t.Errorf("vertex 0 y = %f, want 2", got[0][1])
	}
	// Partial weights are renormalized.
	if !near(got[1][0], 1) || !near(got[1][1], 2) {
		t.Errorf("vertex 1 = %v, want [1 2 0]", got[1])
	}
	if prim.Positions[0][1] != 0 {
		t.Error("bind pose was modified")
	}
	if prim.Version == 0 {
		t.Error("version not bumped")
	}
	if !near(prim.Bounds.Min.Y, 2) {
		t.Errorf("bounds not refreshed: %+v", prim.Bounds)
	}
}

func TestComputeBoundsEmpty(t *testing.T) {
	if !ComputeBounds(nil).Empty() {
		t.Error("nil points should give empty bounds")
	}
	m := &Mesh{}
	if !m.Bounds().Empty() {
		t.Error("mesh without primitives should have empty bounds")
	}
}
