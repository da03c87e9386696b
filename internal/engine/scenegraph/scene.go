package scenegraph

import (
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Scene is the container of root nodes.
type Scene struct {
	roots []*Node
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add appends a root node. Adding the same node twice is a no-op.
func (s *Scene) Add(n *Node) {
	if n == nil {
		return
	}
	for _, r := range s.roots {
		if r == n {
			return
		}
	}
	s.roots = append(s.roots, n)
}

// Roots returns the root nodes in insertion order.
func (s *Scene) Roots() []*Node {
	return s.roots
}

// Contains reports whether n is a root of the scene.
func (s *Scene) Contains(n *Node) bool {
	for _, r := range s.roots {
		if r == n {
			return true
		}
	}
	return false
}

// Traverse visits every node depth-first in root order.
func (s *Scene) Traverse(fn func(*Node) bool) {
	for _, r := range s.roots {
		r.Traverse(fn)
	}
}

// FindByID returns the first node whose ID matches.
func (s *Scene) FindByID(id string) *Node {
	var found *Node
	s.Traverse(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// UpdateWorld recomputes every world transform.
func (s *Scene) UpdateWorld() {
	for _, r := range s.roots {
		r.UpdateWorld(math.Identity())
	}
}

// UpdateSkins deforms every skinned mesh from its joints' current world
// transforms. Call after UpdateWorld.
func (s *Scene) UpdateSkins() {
	s.Traverse(func(n *Node) bool {
		if n.Skin == nil || n.Mesh == nil {
			return true
		}
		mats := n.Skin.Update(n.World())
		for _, p := range n.Mesh.Primitives {
			p.ApplySkin(mats)
		}
		return true
	})
}
