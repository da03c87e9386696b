package camera

import (
	gomath "math"

	"github.com/charmbracelet/harmonica"

	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

const (
	minPolar   = 1e-4
	maxPolar   = gomath.Pi - 1e-4
	minRadius  = 1e-3
	zoomFactor = 0.95
	settleEps  = 1e-5
)

// spring animates one scalar toward a goal.
type spring struct {
	pos, vel, goal float64
}

func (s *spring) step(sp harmonica.Spring) {
	s.pos, s.vel = sp.Update(s.pos, s.vel, s.goal)
}

func (s *spring) snap() {
	s.pos, s.vel = s.goal, 0
}

func (s *spring) settled() bool {
	return gomath.Abs(s.pos-s.goal) < settleEps && gomath.Abs(s.vel) < settleEps
}

// OrbitControls orbits a camera around a target. Input moves goal spherical
// coordinates; Update eases the camera toward them.
type OrbitControls struct {
	camera *Perspective

	EnableDamping bool
	EnableZoom    bool
	EnableRotate  bool
	EnablePan     bool

	RotateSpeed float32
	ZoomSpeed   float32
	PanSpeed    float32

	// ViewportHeight converts pixel drags to angles.
	ViewportHeight float32

	sp harmonica.Spring

	radius, theta, phi spring
	tx, ty, tz         spring
}

// NewOrbitControls attaches controls to cam orbiting target. dampingFreq is
// the spring's angular frequency; damping is critical.
func NewOrbitControls(cam *Perspective, target math.Vec3, dampingFreq float64) *OrbitControls {
	if dampingFreq <= 0 {
		dampingFreq = 6
	}
	c := &OrbitControls{
		camera:         cam,
		EnableDamping:  true,
		EnableZoom:     true,
		EnableRotate:   true,
		EnablePan:      true,
		RotateSpeed:    1,
		ZoomSpeed:      1,
		PanSpeed:       1,
		ViewportHeight: 720,
		sp:             harmonica.NewSpring(harmonica.FPS(60), dampingFreq, 1.0),
	}
	c.SetTarget(target)
	c.Sync()
	return c
}

// Camera returns the controlled camera.
func (c *OrbitControls) Camera() *Perspective { return c.camera }

// Target returns the current orbit center.
func (c *OrbitControls) Target() math.Vec3 {
	return math.Vec3{X: float32(c.tx.pos), Y: float32(c.ty.pos), Z: float32(c.tz.pos)}
}

// SetTarget moves the orbit center immediately.
func (c *OrbitControls) SetTarget(t math.Vec3) {
	c.tx = spring{pos: float64(t.X), goal: float64(t.X)}
	c.ty = spring{pos: float64(t.Y), goal: float64(t.Y)}
	c.tz = spring{pos: float64(t.Z), goal: float64(t.Z)}
}

// Sync reads the spherical state back from the camera position, dropping any
// pending motion.
func (c *OrbitControls) Sync() {
	offset := c.camera.Position.Sub(c.Target())
	r := float64(offset.Length())
	if r < minRadius {
		r = minRadius
	}
	theta := gomath.Atan2(float64(offset.X), float64(offset.Z))
	phi := gomath.Acos(clamp(float64(offset.Y)/r, -1, 1))
	phi = clamp(phi, minPolar, maxPolar)

	c.radius = spring{pos: r, goal: r}
	c.theta = spring{pos: theta, goal: theta}
	c.phi = spring{pos: phi, goal: phi}
	c.camera.LookAt(c.Target())
}

// Radius returns the current camera distance from the target.
func (c *OrbitControls) Radius() float32 { return float32(c.radius.pos) }

// Rotate orbits by a pointer drag of dx, dy pixels.
func (c *OrbitControls) Rotate(dx, dy float32) {
	if !c.EnableRotate || c.ViewportHeight <= 0 {
		return
	}
	k := 2 * gomath.Pi * float64(c.RotateSpeed) / float64(c.ViewportHeight)
	c.theta.goal -= float64(dx) * k
	c.phi.goal = clamp(c.phi.goal-float64(dy)*k, minPolar, maxPolar)
}

// Zoom dollies by scroll wheel steps; positive steps move closer.
func (c *OrbitControls) Zoom(steps float32) {
	if !c.EnableZoom || steps == 0 {
		return
	}
	scale := gomath.Pow(zoomFactor, float64(c.ZoomSpeed)*gomath.Abs(float64(steps)))
	if steps > 0 {
		c.radius.goal *= scale
	} else {
		c.radius.goal /= scale
	}
	if c.radius.goal < minRadius {
		c.radius.goal = minRadius
	}
}

// Pan shifts the target by a pointer drag of dx, dy pixels in the view plane.
func (c *OrbitControls) Pan(dx, dy float32) {
	if !c.EnablePan {
		return
	}
	unit := c.camera.WorldUnitsPerPixel(float32(c.radius.pos), c.ViewportHeight) * c.PanSpeed
	right := c.camera.Right()
	up := right.Cross(c.camera.Forward()).Normalize()
	move := right.Scale(-dx * unit).Add(up.Scale(dy * unit))
	c.tx.goal += float64(move.X)
	c.ty.goal += float64(move.Y)
	c.tz.goal += float64(move.Z)
}

// Update advances the camera one frame toward the goal state and reports
// whether it moved.
func (c *OrbitControls) Update() bool {
	springs := []*spring{&c.radius, &c.theta, &c.phi, &c.tx, &c.ty, &c.tz}
	moved := false
	for _, s := range springs {
		if s.settled() {
			if s.pos != s.goal {
				s.snap()
				moved = true
			}
			continue
		}
		if c.EnableDamping {
			s.step(c.sp)
		} else {
			s.snap()
		}
		moved = true
	}
	c.apply()
	return moved
}

func (c *OrbitControls) apply() {
	r, theta, phi := c.radius.pos, c.theta.pos, c.phi.pos
	sinPhi := gomath.Sin(phi)
	offset := math.Vec3{
		X: float32(r * sinPhi * gomath.Sin(theta)),
		Y: float32(r * gomath.Cos(phi)),
		Z: float32(r * sinPhi * gomath.Cos(theta)),
	}
	target := c.Target()
	c.camera.Position = target.Add(offset)
	c.camera.LookAt(target)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
