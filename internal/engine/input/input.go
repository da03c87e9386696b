// Package input defines the pointer and keyboard events the viewer consumes
// and the helpers that turn them into normalized coordinates and drags.
package input

import (
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventKeyDown
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Key is a keyboard key the viewer reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyScreenshot
)

// Button is a mouse button.
type Button uint8

const (
	ButtonLeft   Button = 1
	ButtonMiddle Button = 2
	ButtonRight  Button = 3
)

// Event represents a processed input event. Positions are window pixels.
type Event struct {
	Type   EventType
	Key    Key
	MouseX int
	MouseY int
	Button Button
	// WheelY is positive when scrolling away from the user.
	WheelY float32
}

// Source produces the events of one frame.
type Source interface {
	// Poll returns this frame's events. The slice is reused between calls.
	Poll() []Event
}

// NormalizePointer converts a pixel position into normalized device
// coordinates over a width x height viewport: x grows right, y grows up,
// both in [-1, 1].
func NormalizePointer(px, py, width, height int) math.Vec2 {
	if width <= 0 || height <= 0 {
		return math.Vec2{}
	}
	return math.Vec2{
		X: float32(px)/float32(width)*2 - 1,
		Y: -(float32(py)/float32(height))*2 + 1,
	}
}

// Drag tracks pointer drags for one button at a time.
type Drag struct {
	button Button
	lastX  int
	lastY  int
	active bool
}

// Begin starts a drag with button at x, y. A drag already in progress wins.
func (d *Drag) Begin(button Button, x, y int) {
	if d.active {
		return
	}
	d.button, d.lastX, d.lastY, d.active = button, x, y, true
}

// End stops the drag if button started it.
func (d *Drag) End(button Button) {
	if d.active && d.button == button {
		d.active = false
	}
}

// Move reports the pixel delta since the last position and the dragging
// button. ok is false when no drag is active.
func (d *Drag) Move(x, y int) (button Button, dx, dy float32, ok bool) {
	if !d.active {
		return 0, 0, 0, false
	}
	dx, dy = float32(x-d.lastX), float32(y-d.lastY)
	d.lastX, d.lastY = x, y
	return d.button, dx, dy, true
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool {
	return d.active
}
