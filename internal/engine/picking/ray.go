// Package picking casts rays from the pointer into the scene and finds the
// nearest object under it.
package picking

import (
	gomath "math"

	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// triangleEpsilon rejects triangles nearly parallel to the ray.
const triangleEpsilon = 1e-9

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// FromCamera builds a world-space ray through the normalized device
// coordinates ndc for a symmetric perspective projection. The origin is the
// camera position.
func FromCamera(ndc math.Vec2, view, projection math.Mat4) Ray {
	camWorld := view.Inverse()
	origin := math.Vec3{X: camWorld[12], Y: camWorld[13], Z: camWorld[14]}

	// The view-space direction comes straight from the projection scale
	// factors, which keeps precision with very small near planes.
	dirView := [3]float32{ndc.X / projection[0], ndc.Y / projection[5], -1}
	dir := math.V3(camWorld.TransformDirection(dirView)).Normalize()

	return Ray{Origin: origin, Direction: dir}
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// TransformAABB returns the world box enclosing local bounds under m.
func TransformAABB(b scenegraph.Bounds, m math.Mat4) AABB {
	var out AABB
	for i := 0; i < 8; i++ {
		corner := [3]float32{b.Min.X, b.Min.Y, b.Min.Z}
		if i&1 != 0 {
			corner[0] = b.Max.X
		}
		if i&2 != 0 {
			corner[1] = b.Max.Y
		}
		if i&4 != 0 {
			corner[2] = b.Max.Z
		}
		p := math.V3(m.TransformPoint(corner))
		if i == 0 {
			out.Min, out.Max = p, p
			continue
		}
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin, dir := r.Origin.Array(), r.Direction.Array()
	lo, hi := box.Min.Array(), box.Max.Array()

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle runs the Möller-Trumbore test against triangle a, b, c.
// Counter-clockwise triangles are front facing; side selects which faces
// can be hit.
func (r Ray) IntersectTriangle(a, b, c math.Vec3, side scenegraph.Side) (float32, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)

	switch side {
	case scenegraph.FrontSide:
		if det <= triangleEpsilon {
			return 0, false
		}
	case scenegraph.BackSide:
		if det >= -triangleEpsilon {
			return 0, false
		}
	default:
		if det > -triangleEpsilon && det < triangleEpsilon {
			return 0, false
		}
	}

	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}
