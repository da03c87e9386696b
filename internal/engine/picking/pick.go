package picking

import (
	gomath "math"

	"github.com/Faultbox/hotspot-viewer/internal/engine/camera"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Hit is the nearest intersection found by Pick.
type Hit struct {
	ObjectID string
	Distance float32
	Node     *scenegraph.Node
}

// Pickable is anything a ray can be tested against.
type Pickable interface {
	Node() *scenegraph.Node
	Intersect(r Ray) (float32, bool)
}

// Pick returns the nearest candidate the ray hits. Equal distances keep the
// earlier candidate.
func Pick(r Ray, candidates []Pickable) (Hit, bool) {
	var best Hit
	found := false
	for _, c := range candidates {
		t, ok := c.Intersect(r)
		if !ok {
			continue
		}
		if !found || t < best.Distance {
			n := c.Node()
			best = Hit{ObjectID: n.ID, Distance: t, Node: n}
			found = true
		}
	}
	return best, found
}

// MeshTarget tests a mesh node triangle by triangle in its local space.
type MeshTarget struct {
	node *scenegraph.Node
}

// NewMeshTarget wraps a mesh node. World transforms must be current.
func NewMeshTarget(n *scenegraph.Node) *MeshTarget {
	return &MeshTarget{node: n}
}

// Node returns the wrapped node.
func (m *MeshTarget) Node() *scenegraph.Node { return m.node }

// Intersect returns the world distance to the closest triangle hit.
func (m *MeshTarget) Intersect(r Ray) (float32, bool) {
	mesh := m.node.Mesh
	if mesh == nil {
		return 0, false
	}
	world := m.node.World()
	if _, ok := r.IntersectAABB(TransformAABB(mesh.Bounds(), world)); !ok {
		return 0, false
	}

	// The direction is left unnormalized so t stays a world distance.
	inv := world.Inverse()
	local := Ray{
		Origin:    math.V3(inv.TransformPoint(r.Origin.Array())),
		Direction: math.V3(inv.TransformDirection(r.Direction.Array())),
	}

	best := float32(gomath.MaxFloat32)
	found := false
	for _, p := range mesh.Primitives {
		side := scenegraph.FrontSide
		if p.Material != nil {
			side = p.Material.Side
		}
		pos := p.CurrentPositions()
		for i := 0; i < p.TriangleCount(); i++ {
			ia, ib, ic := p.Triangle(i)
			if int(ia) >= len(pos) || int(ib) >= len(pos) || int(ic) >= len(pos) {
				continue
			}
			t, ok := local.IntersectTriangle(math.V3(pos[ia]), math.V3(pos[ib]), math.V3(pos[ic]), side)
			if ok && t < best {
				best = t
				found = true
			}
		}
	}
	return best, found
}

// SpriteTarget tests a marker against the screen-aligned square the renderer
// draws for it.
type SpriteTarget struct {
	node   *scenegraph.Node
	center math.Vec3
	right  math.Vec3
	up     math.Vec3
	half   float32
}

// NewSpriteTarget sizes the square for the given camera. The half extent is
// ScreenSize in normalized device units, so in world units it grows with the
// marker's view depth.
func NewSpriteTarget(n *scenegraph.Node, cam *camera.Perspective) *SpriteTarget {
	center := n.WorldPosition()
	view := cam.ViewMatrix()
	eye := view.MulVec4(math.Vec4{center.X, center.Y, center.Z, 1})
	depth := -eye[2]

	size := float32(0)
	if n.Sprite != nil {
		size = n.Sprite.ScreenSize
	}
	half := size * depth * float32(gomath.Tan(float64(cam.FOVRadians())/2))
	return &SpriteTarget{
		node:   n,
		center: center,
		right:  math.Vec3{X: view[0], Y: view[4], Z: view[8]},
		up:     math.Vec3{X: view[1], Y: view[5], Z: view[9]},
		half:   half,
	}
}

// Node returns the wrapped node.
func (s *SpriteTarget) Node() *scenegraph.Node { return s.node }

// HalfSize returns the world half extent of the square. It is not positive
// for markers behind the camera.
func (s *SpriteTarget) HalfSize() float32 { return s.half }

// Intersect returns the distance to the square.
func (s *SpriteTarget) Intersect(r Ray) (float32, bool) {
	if s.half <= 0 {
		return 0, false
	}
	normal := s.right.Cross(s.up)
	denom := r.Direction.Dot(normal)
	if gomath.Abs(float64(denom)) < 1e-9 {
		return 0, false
	}
	t := s.center.Sub(r.Origin).Dot(normal) / denom
	if t < 0 {
		return 0, false
	}
	p := r.At(t).Sub(s.center)
	if abs(p.Dot(s.right)) > s.half || abs(p.Dot(s.up)) > s.half {
		return 0, false
	}
	return t, true
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Collect walks the scene recursively and returns a candidate for every
// visible mesh and sprite node, in traversal order.
func Collect(scene *scenegraph.Scene, cam *camera.Perspective) []Pickable {
	var out []Pickable
	scene.Traverse(func(n *scenegraph.Node) bool {
		if !n.Visible {
			return false
		}
		switch n.Kind {
		case scenegraph.KindMesh:
			if n.Mesh != nil {
				out = append(out, NewMeshTarget(n))
			}
		case scenegraph.KindSprite:
			out = append(out, NewSpriteTarget(n, cam))
		}
		return true
	})
	return out
}
