package viewer

import "time"

// Clock measures frame time. The first Tick reports a zero delta.
type Clock struct {
	now     func() time.Time
	start   time.Time
	last    time.Time
	started bool
}

// NewClock creates a clock reading the wall time.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Tick returns seconds since the first tick and since the previous tick.
func (c *Clock) Tick() (elapsed, delta float32) {
	t := c.now()
	if !c.started {
		c.start, c.last, c.started = t, t, true
		return 0, 0
	}
	delta = float32(t.Sub(c.last).Seconds())
	elapsed = float32(t.Sub(c.start).Seconds())
	c.last = t
	return elapsed, delta
}
