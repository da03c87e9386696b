// Package animation plays keyframe clips on scene graph nodes.
package animation

import (
	"sort"

	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Path is the node property a track drives.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

// String returns the glTF name of the path.
func (p Path) String() string {
	switch p {
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	default:
		return "translation"
	}
}

// Interpolation selects how values between keyframes are computed.
type Interpolation int

const (
	Linear Interpolation = iota
	Step
	CubicSpline
)

// Track animates one property of one node. Values are flattened: three
// floats per key for translation/scale, four (x, y, z, w) for rotation.
// Cubic spline tracks store in-tangent, value, out-tangent per key.
type Track struct {
	Target        *scenegraph.Node
	Path          Path
	Interpolation Interpolation
	Times         []float32
	Values        []float32
}

// Components returns the float count of one value.
func (t *Track) Components() int {
	if t.Path == PathRotation {
		return 4
	}
	return 3
}

func (t *Track) value(key, comps int) []float32 {
	offset := key * comps
	if t.Interpolation == CubicSpline {
		offset = key*comps*3 + comps
	}
	return t.Values[offset : offset+comps]
}

func (t *Track) tangent(key, comps int, out bool) []float32 {
	offset := key * comps * 3
	if out {
		offset += comps * 2
	}
	return t.Values[offset : offset+comps]
}

// Valid reports whether the keyframe arrays are consistent.
func (t *Track) Valid() bool {
	if len(t.Times) == 0 {
		return false
	}
	n := len(t.Times) * t.Components()
	if t.Interpolation == CubicSpline {
		n *= 3
	}
	return len(t.Values) >= n
}

// Sample evaluates the track at time (seconds). Times before the first key
// clamp to the first value, after the last key to the last value.
func (t *Track) Sample(time float32) []float32 {
	comps := t.Components()
	last := len(t.Times) - 1
	if time <= t.Times[0] || last == 0 {
		return append([]float32(nil), t.value(0, comps)...)
	}
	if time >= t.Times[last] {
		return append([]float32(nil), t.value(last, comps)...)
	}

	next := sort.Search(len(t.Times), func(i int) bool { return t.Times[i] > time })
	prev := next - 1
	dt := t.Times[next] - t.Times[prev]
	s := float32(0)
	if dt > 0 {
		s = (time - t.Times[prev]) / dt
	}

	out := make([]float32, comps)
	switch t.Interpolation {
	case Step:
		copy(out, t.value(prev, comps))
	case CubicSpline:
		v0, v1 := t.value(prev, comps), t.value(next, comps)
		b0, a1 := t.tangent(prev, comps, true), t.tangent(next, comps, false)
		s2, s3 := s*s, s*s*s
		h00 := 2*s3 - 3*s2 + 1
		h10 := s3 - 2*s2 + s
		h01 := -2*s3 + 3*s2
		h11 := s3 - s2
		for i := range out {
			out[i] = h00*v0[i] + h10*dt*b0[i] + h01*v1[i] + h11*dt*a1[i]
		}
		if t.Path == PathRotation {
			q := quat(out).Normalize()
			out[0], out[1], out[2], out[3] = q.X, q.Y, q.Z, q.W
		}
	default:
		v0, v1 := t.value(prev, comps), t.value(next, comps)
		if t.Path == PathRotation {
			q := quat(v0).Slerp(quat(v1), s)
			out[0], out[1], out[2], out[3] = q.X, q.Y, q.Z, q.W
		} else {
			for i := range out {
				out[i] = v0[i] + s*(v1[i]-v0[i])
			}
		}
	}
	return out
}

func quat(v []float32) math.Quat {
	return math.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

// Clip is a named set of tracks.
type Clip struct {
	Name     string
	Duration float32
	Tracks   []Track
}

// NewClip builds a clip and derives its duration from the last keyframe.
// Invalid tracks are dropped.
func NewClip(name string, tracks []Track) *Clip {
	c := &Clip{Name: name}
	for _, tr := range tracks {
		if !tr.Valid() {
			continue
		}
		c.Tracks = append(c.Tracks, tr)
		if end := tr.Times[len(tr.Times)-1]; end > c.Duration {
			c.Duration = end
		}
	}
	return c
}

// FindByName returns the clip whose name matches exactly, or nil.
func FindByName(clips []*Clip, name string) *Clip {
	for _, c := range clips {
		if c.Name == name {
			return c
		}
	}
	return nil
}
