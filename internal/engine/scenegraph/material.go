package scenegraph

import "image"

// Side selects which triangle faces are drawn and picked.
type Side int

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// Texture is decoded pixel data. The renderer owns the GPU copy.
type Texture struct {
	Name  string
	Image *image.RGBA
}

// Material describes how a primitive or sprite is shaded.
type Material struct {
	Name    string
	Color   [4]float32
	Texture *Texture
	Opacity float32
	// Metalness darkens the diffuse term of lit materials.
	Metalness float32
	// Transparent enables blending; otherwise Opacity is ignored when drawing.
	Transparent bool
	// Unlit materials ignore scene lighting.
	Unlit bool
	Side  Side
}

// NewMaterial returns an opaque white front-sided material.
func NewMaterial(name string) *Material {
	return &Material{
		Name:    name,
		Color:   [4]float32{1, 1, 1, 1},
		Opacity: 1,
		Side:    FrontSide,
	}
}
