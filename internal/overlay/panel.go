// Package overlay owns the information panels layered over the 3D view and
// keeps them in step with the hovered hotspot marker.
package overlay

// Display mirrors the CSS display property of a panel.
type Display string

const (
	DisplayNone  Display = "none"
	DisplayBlock Display = "block"
)

// Stacking indices. Panels with a negative index sit behind the canvas.
const (
	BackgroundZ = -40
	ForegroundZ = 100
)

// Handle is the mutable style of one overlay element.
type Handle interface {
	Display() Display
	SetDisplay(Display)
	ZIndex() int
	SetZIndex(int)
}

// Rect is a screen rectangle in logical pixels.
type Rect struct {
	X, Y, W, H float32
}

// Panel is an information box drawn over the canvas.
type Panel struct {
	ID    string
	Title string
	Body  string
	Rect  Rect

	display Display
	z       int
	version uint64
}

// NewPanel creates a hidden panel behind the canvas.
func NewPanel(id, title, body string, rect Rect) *Panel {
	return &Panel{
		ID:      id,
		Title:   title,
		Body:    body,
		Rect:    rect,
		display: DisplayNone,
		z:       BackgroundZ,
	}
}

// Display returns the current display value.
func (p *Panel) Display() Display { return p.display }

// SetDisplay changes the display value.
func (p *Panel) SetDisplay(d Display) { p.display = d }

// ZIndex returns the stacking index.
func (p *Panel) ZIndex() int { return p.z }

// SetZIndex changes the stacking index.
func (p *Panel) SetZIndex(z int) { p.z = z }

// SetText replaces the panel contents.
func (p *Panel) SetText(title, body string) {
	p.Title, p.Body = title, body
	p.version++
}

// Version changes whenever the text changes.
func (p *Panel) Version() uint64 { return p.version }

// Visible reports whether the panel is drawn over the canvas.
func (p *Panel) Visible() bool {
	return p.display == DisplayBlock && p.z > 0
}
