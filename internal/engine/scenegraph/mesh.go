package scenegraph

import (
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Bounds is an axis-aligned box in the primitive's local space.
type Bounds struct {
	Min, Max math.Vec3
}

// Empty reports whether the bounds enclose nothing.
func (b Bounds) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// ComputeBounds returns the box enclosing points.
func ComputeBounds(points [][3]float32) Bounds {
	if len(points) == 0 {
		return Bounds{Min: math.Vec3{X: 1, Y: 1, Z: 1}, Max: math.Vec3{X: -1, Y: -1, Z: -1}}
	}
	b := Bounds{Min: math.V3(points[0]), Max: math.V3(points[0])}
	for _, p := range points[1:] {
		v := math.V3(p)
		b.Min = b.Min.Min(v)
		b.Max = b.Max.Max(v)
	}
	return b
}

// Primitive is one draw call worth of indexed triangles.
// UVs use the glTF convention: (0,0) is the top-left corner of the image.
type Primitive struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32

	Joints  [][4]uint16
	Weights [][4]float32

	Material *Material
	Bounds   Bounds

	skinnedPositions [][3]float32
	skinnedNormals   [][3]float32

	// Version changes whenever vertex data changes so GPU copies can refresh.
	Version uint64
}

// Skinned reports whether the primitive carries joint influences.
func (p *Primitive) Skinned() bool {
	return len(p.Joints) == len(p.Positions) && len(p.Weights) == len(p.Positions) && len(p.Positions) > 0
}

// CurrentPositions returns the deformed positions when skinning has run,
// otherwise the bind-pose positions.
func (p *Primitive) CurrentPositions() [][3]float32 {
	if p.skinnedPositions != nil {
		return p.skinnedPositions
	}
	return p.Positions
}

// CurrentNormals mirrors CurrentPositions for normals.
func (p *Primitive) CurrentNormals() [][3]float32 {
	if p.skinnedNormals != nil {
		return p.skinnedNormals
	}
	return p.Normals
}

// TriangleCount returns the number of triangles drawn.
func (p *Primitive) TriangleCount() int {
	if len(p.Indices) > 0 {
		return len(p.Indices) / 3
	}
	return len(p.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
func (p *Primitive) Triangle(i int) (a, b, c uint32) {
	if len(p.Indices) > 0 {
		return p.Indices[i*3], p.Indices[i*3+1], p.Indices[i*3+2]
	}
	base := uint32(i * 3)
	return base, base + 1, base + 2
}

// ApplyScale scales the geometry in place. Normals go through the inverse
// scale so lighting stays correct; a negative factor turns faces inside out.
func (p *Primitive) ApplyScale(x, y, z float32) {
	for i, v := range p.Positions {
		p.Positions[i] = [3]float32{v[0] * x, v[1] * y, v[2] * z}
	}
	for i, n := range p.Normals {
		s := math.Vec3{X: n[0] / x, Y: n[1] / y, Z: n[2] / z}.Normalize()
		p.Normals[i] = s.Array()
	}
	p.Bounds = ComputeBounds(p.Positions)
	p.Version++
}

// ApplySkin deforms the bind pose with the given joint matrices.
func (p *Primitive) ApplySkin(joints []math.Mat4) {
	if !p.Skinned() {
		return
	}
	if len(p.skinnedPositions) != len(p.Positions) {
		p.skinnedPositions = make([][3]float32, len(p.Positions))
	}
	hasNormals := len(p.Normals) == len(p.Positions)
	if hasNormals && len(p.skinnedNormals) != len(p.Normals) {
		p.skinnedNormals = make([][3]float32, len(p.Normals))
	}

	for i, pos := range p.Positions {
		var out, nrm math.Vec3
		var total float32
		for k := 0; k < 4; k++ {
			w := p.Weights[i][k]
			j := int(p.Joints[i][k])
			if w == 0 || j >= len(joints) {
				continue
			}
			total += w
			out = out.Add(math.V3(joints[j].TransformPoint(pos)).Scale(w))
			if hasNormals {
				nrm = nrm.Add(math.V3(joints[j].TransformDirection(p.Normals[i])).Scale(w))
			}
		}
		if total == 0 {
			p.skinnedPositions[i] = pos
			if hasNormals {
				p.skinnedNormals[i] = p.Normals[i]
			}
			continue
		}
		if total != 1 {
			out = out.Scale(1 / total)
		}
		p.skinnedPositions[i] = out.Array()
		if hasNormals {
			p.skinnedNormals[i] = nrm.Normalize().Array()
		}
	}
	p.Bounds = ComputeBounds(p.skinnedPositions)
	p.Version++
}

// Mesh groups primitives that share a node transform.
type Mesh struct {
	Name       string
	Primitives []*Primitive
}

// Bounds returns the union of the primitive bounds.
func (m *Mesh) Bounds() Bounds {
	var out Bounds
	first := true
	for _, p := range m.Primitives {
		if p.Bounds.Empty() {
			continue
		}
		if first {
			out = p.Bounds
			first = false
			continue
		}
		out.Min = out.Min.Min(p.Bounds.Min)
		out.Max = out.Max.Max(p.Bounds.Max)
	}
	if first {
		return ComputeBounds(nil)
	}
	return out
}
