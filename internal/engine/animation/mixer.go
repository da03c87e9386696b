package animation

import (
	gomath "math"

	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// Action is the playback state of one clip inside a mixer.
type Action struct {
	clip    *Clip
	time    float32
	running bool

	Weight    float32
	TimeScale float32
	Loop      bool
}

// Clip returns the clip being played.
func (a *Action) Clip() *Clip { return a.clip }

// Time returns the local playback time in seconds.
func (a *Action) Time() float32 { return a.time }

// IsRunning reports whether the action contributes to the pose.
func (a *Action) IsRunning() bool { return a.running }

// Play starts the action. Playing a running action changes nothing.
func (a *Action) Play() *Action {
	a.running = true
	return a
}

// Stop halts the action and rewinds it.
func (a *Action) Stop() *Action {
	a.running = false
	a.time = 0
	return a
}

func (a *Action) advance(dt float32) {
	a.time += dt * a.TimeScale
	d := a.clip.Duration
	if d <= 0 {
		a.time = 0
		return
	}
	if a.Loop {
		a.time = float32(gomath.Mod(float64(a.time), float64(d)))
		if a.time < 0 {
			a.time += d
		}
		return
	}
	if a.time >= d {
		a.time = d
		a.running = false
	}
}

// Mixer owns the actions playing on one node hierarchy.
type Mixer struct {
	root    *scenegraph.Node
	actions []*Action
	byClip  map[*Clip]*Action
	time    float32

	// Per-frame blend state, reused between updates.
	pose   map[binding]int
	accums []accum
	order  []binding
}

// NewMixer creates a mixer for the hierarchy under root.
func NewMixer(root *scenegraph.Node) *Mixer {
	return &Mixer{
		root:   root,
		byClip: make(map[*Clip]*Action),
		pose:   make(map[binding]int),
	}
}

// Root returns the node the mixer was created for.
func (m *Mixer) Root() *scenegraph.Node { return m.root }

// Time returns the total time the mixer has been advanced.
func (m *Mixer) Time() float32 { return m.time }

// Actions returns every action created so far.
func (m *Mixer) Actions() []*Action { return m.actions }

// ClipAction returns the action for clip, creating it on first use.
// Repeated calls return the same action.
func (m *Mixer) ClipAction(c *Clip) *Action {
	if a, ok := m.byClip[c]; ok {
		return a
	}
	a := &Action{clip: c, Weight: 1, TimeScale: 1, Loop: true}
	m.byClip[c] = a
	m.actions = append(m.actions, a)
	return a
}

// Running returns the number of running actions.
func (m *Mixer) Running() int {
	n := 0
	for _, a := range m.actions {
		if a.running {
			n++
		}
	}
	return n
}

type binding struct {
	node *scenegraph.Node
	path Path
}

type accum struct {
	weight float32
	vec    math.Vec3
	rot    math.Quat
}

// Update advances every running action by dt seconds and writes the blended
// pose to the target nodes. Properties no running action drives are left as
// they are.
func (m *Mixer) Update(dt float32) {
	m.time += dt

	clear(m.pose)
	m.accums = m.accums[:0]
	m.order = m.order[:0]
	for _, a := range m.actions {
		if !a.running || a.Weight <= 0 {
			continue
		}
		a.advance(dt)
		for i := range a.clip.Tracks {
			tr := &a.clip.Tracks[i]
			if tr.Target == nil {
				continue
			}
			key := binding{tr.Target, tr.Path}
			idx, ok := m.pose[key]
			if !ok {
				idx = len(m.accums)
				m.pose[key] = idx
				m.accums = append(m.accums, accum{})
				m.order = append(m.order, key)
			}
			acc := &m.accums[idx]
			v := tr.Sample(a.time)
			acc.weight += a.Weight
			if tr.Path == PathRotation {
				q := quat(v)
				if acc.weight == a.Weight {
					acc.rot = q
				} else {
					acc.rot = acc.rot.Slerp(q, a.Weight/acc.weight)
				}
				continue
			}
			acc.vec = acc.vec.Add(math.Vec3{X: v[0], Y: v[1], Z: v[2]}.Scale(a.Weight))
		}
	}

	for i, key := range m.order {
		acc := &m.accums[i]
		switch key.path {
		case PathRotation:
			key.node.Rotation = acc.rot.Normalize()
		case PathScale:
			key.node.Scale = acc.vec.Scale(1 / acc.weight)
		default:
			key.node.Translation = acc.vec.Scale(1 / acc.weight)
		}
	}
}
