package scenegraph

import (
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Skin binds mesh vertices to joint nodes.
type Skin struct {
	Name        string
	Joints      []*Node
	InverseBind []math.Mat4

	matrices []math.Mat4
}

// Matrices returns the joint matrices from the last Update.
func (s *Skin) Matrices() []math.Mat4 {
	return s.matrices
}

// Update recomputes joint matrices relative to the mesh node's world
// transform. World transforms must be current.
func (s *Skin) Update(meshWorld math.Mat4) []math.Mat4 {
	if len(s.matrices) != len(s.Joints) {
		s.matrices = make([]math.Mat4, len(s.Joints))
	}
	inv := meshWorld.Inverse()
	for i, j := range s.Joints {
		ibm := math.Identity()
		if i < len(s.InverseBind) {
			ibm = s.InverseBind[i]
		}
		s.matrices[i] = inv.Mul(j.World()).Mul(ibm)
	}
	return s.matrices
}
