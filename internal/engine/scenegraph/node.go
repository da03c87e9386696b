// Package scenegraph holds the CPU-side scene: a node hierarchy with
// transforms, meshes, materials, skins and sprite markers. It has no GL
// dependency; the renderer and the picking code both read from it.
package scenegraph

import (
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Kind tells the renderer and picker how to treat a node.
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindSprite
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindSprite:
		return "sprite"
	default:
		return "group"
	}
}

// Sprite describes a camera-facing marker quad.
type Sprite struct {
	Material *Material

	// ScreenSize is the quad height as a fraction of the viewport height.
	// The on-screen size does not change with distance.
	ScreenSize float32
}

// Node is a transform in the scene hierarchy.
type Node struct {
	Name string
	// ID correlates the node with things outside the scene (overlay panels).
	ID   string
	Kind Kind

	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
	Visible     bool

	Mesh   *Mesh
	Skin   *Skin
	Sprite *Sprite

	parent   *Node
	children []*Node
	world    math.Mat4
}

// NewNode creates an empty group node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Kind:     KindGroup,
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
		Visible:  true,
		world:    math.Identity(),
	}
}

// NewMeshNode creates a node that draws mesh.
func NewMeshNode(name string, mesh *Mesh) *Node {
	n := NewNode(name)
	n.Kind = KindMesh
	n.Mesh = mesh
	return n
}

// NewSpriteNode creates a marker sprite tagged with id.
func NewSpriteNode(id string, mat *Material, screenSize float32) *Node {
	n := NewNode(id)
	n.ID = id
	n.Kind = KindSprite
	n.Sprite = &Sprite{Material: mat, ScreenSize: screenSize}
	return n
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Children returns the direct children in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Child follows a path of child indices. An empty path returns n itself.
func (n *Node) Child(path ...int) (*Node, bool) {
	cur := n
	for _, idx := range path {
		if idx < 0 || idx >= len(cur.children) {
			return nil, false
		}
		cur = cur.children[idx]
	}
	return cur, true
}

// SetUniformScale sets the same scale factor on all three axes.
func (n *Node) SetUniformScale(s float32) {
	n.Scale = math.Vec3{X: s, Y: s, Z: s}
}

// Local returns the node's local transform.
func (n *Node) Local() math.Mat4 {
	return math.Compose(n.Translation, n.Rotation, n.Scale)
}

// SetLocal replaces the TRS components from a matrix.
func (n *Node) SetLocal(m math.Mat4) {
	n.Translation, n.Rotation, n.Scale = m.Decompose()
}

// World returns the world transform computed by the last UpdateWorld.
func (n *Node) World() math.Mat4 {
	return n.world
}

// WorldPosition returns the world-space origin of the node.
func (n *Node) WorldPosition() math.Vec3 {
	return math.Vec3{X: n.world[12], Y: n.world[13], Z: n.world[14]}
}

// UpdateWorld recomputes world transforms for n and its subtree.
func (n *Node) UpdateWorld(parent math.Mat4) {
	n.world = parent.Mul(n.Local())
	for _, c := range n.children {
		c.UpdateWorld(n.world)
	}
}

// Traverse visits n and its descendants depth-first. Returning false from fn
// skips the node's subtree.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// VisibleInWorld reports whether n and all its ancestors are visible.
func (n *Node) VisibleInWorld() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.Visible {
			return false
		}
	}
	return true
}
