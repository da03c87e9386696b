// Package camera provides the perspective camera and orbit controls.
package camera

import (
	gomath "math"

	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Perspective is a perspective camera looking at a target point.
type Perspective struct {
	// FOV is the vertical field of view in degrees.
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32

	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3
}

// NewPerspective creates a camera at the origin looking down -Z.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	return &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Target: math.Vec3{Z: -1},
		Up:     math.Vec3{Y: 1},
	}
}

// LookAt points the camera at target.
func (c *Perspective) LookAt(target math.Vec3) {
	c.Target = target
}

// ViewMatrix returns the world-to-camera transform.
func (c *Perspective) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the camera-to-clip transform.
func (c *Perspective) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FOVRadians(), c.Aspect, c.Near, c.Far)
}

// FOVRadians returns the vertical field of view in radians.
func (c *Perspective) FOVRadians() float32 {
	return c.FOV * gomath.Pi / 180
}

// Forward returns the unit view direction.
func (c *Perspective) Forward() math.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// Right returns the unit right vector of the view.
func (c *Perspective) Right() math.Vec3 {
	return c.Forward().Cross(c.Up).Normalize()
}

// WorldUnitsPerPixel returns the height one viewport pixel covers at
// distance from the camera.
func (c *Perspective) WorldUnitsPerPixel(distance, viewportHeight float32) float32 {
	if viewportHeight <= 0 {
		return 0
	}
	half := float32(gomath.Tan(float64(c.FOVRadians()) / 2))
	return 2 * distance * half / viewportHeight
}
