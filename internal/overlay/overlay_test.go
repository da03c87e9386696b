package overlay

import (
	"errors"
	"image/color"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/math/fixed"

	"github.com/Faultbox/hotspot-viewer/internal/logger"
)

var ids = []string{"sphereLabel1", "sphereLabel2", "sphereLabel3"}

type fakeMarkers struct {
	opacity map[string]float32
	calls   []string
}

func newFakeMarkers() *fakeMarkers {
	m := &fakeMarkers{opacity: make(map[string]float32)}
	for _, id := range ids {
		m.opacity[id] = 0.5
	}
	return m
}

func (m *fakeMarkers) SetMarkerOpacity(id string, o float32) bool {
	m.calls = append(m.calls, id)
	if _, ok := m.opacity[id]; !ok {
		return false
	}
	m.opacity[id] = o
	return true
}

func setup(t *testing.T) (*Synchronizer, map[string]*Panel, *fakeMarkers) {
	t.Helper()
	reg := NewRegistry()
	panels := make(map[string]*Panel)
	for _, id := range ids {
		p := NewPanel(id, id, "", Rect{W: 100, H: 50})
		panels[id] = p
		if err := reg.Register(id, p); err != nil {
			t.Fatal(err)
		}
	}
	markers := newFakeMarkers()
	return NewSynchronizer(reg, markers), panels, markers
}

func foreground(panels map[string]*Panel) []string {
	var out []string
	for id, p := range panels {
		if p.ZIndex() == ForegroundZ {
			out = append(out, id)
		}
	}
	return out
}

func TestNewPanelHidden(t *testing.T) {
	p := NewPanel("a", "t", "b", Rect{})
	if p.Display() != DisplayNone || p.ZIndex() != BackgroundZ || p.Visible() {
		t.Errorf("new panel = %+v", p)
	}
	p.SetDisplay(DisplayBlock)
	if p.Visible() {
		t.Error("panel behind canvas reported visible")
	}
	p.SetZIndex(ForegroundZ)
	if !p.Visible() {
		t.Error("foreground block panel not visible")
	}
	v := p.Version()
	p.SetText("x", "y")
	if p.Version() == v {
		t.Error("SetText did not bump version")
	}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	p := NewPanel("a", "", "", Rect{})
	if err := reg.Register("a", p); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		id   string
		h    Handle
	}{
		{"duplicate", "a", p},
		{"empty id", "", p},
		{"nil handle", "b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.id, tt.h); err == nil {
				t.Error("expected error")
			}
		})
	}
	if reg.Len() != 1 || reg.IDs()[0] != "a" {
		t.Errorf("ids = %v", reg.IDs())
	}
}

func TestRegistryValidate(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("sphereLabel1", NewPanel("sphereLabel1", "", "", Rect{}))

	if err := reg.Validate([]string{"sphereLabel1"}); err != nil {
		t.Errorf("Validate = %v", err)
	}
	err := reg.Validate(ids)
	if !errors.Is(err, ErrMissingHandle) {
		t.Fatalf("Validate = %v, want ErrMissingHandle", err)
	}
	want := "missing overlay handle: sphereLabel2\nmissing overlay handle: sphereLabel3"
	if err.Error() != want {
		t.Errorf("error = %q", err.Error())
	}
}

func TestSyncEnter(t *testing.T) {
	s, panels, markers := setup(t)
	s.Sync("sphereLabel2")

	p := panels["sphereLabel2"]
	if p.Display() != DisplayBlock || p.ZIndex() != ForegroundZ {
		t.Errorf("panel = %+v", p)
	}
	if markers.opacity["sphereLabel2"] != 1 {
		t.Errorf("marker opacity = %v", markers.opacity["sphereLabel2"])
	}
	if got := s.State(); !got.Shown || got.ID != "sphereLabel2" {
		t.Errorf("state = %+v", got)
	}
}

func TestSyncIdempotent(t *testing.T) {
	s, panels, markers := setup(t)
	s.Sync("sphereLabel1")
	calls := len(markers.calls)
	panels["sphereLabel1"].SetZIndex(7) // detect any rewrite

	for i := 0; i < 5; i++ {
		s.Sync("sphereLabel1")
	}
	if len(markers.calls) != calls {
		t.Error("repeated hover touched markers")
	}
	if panels["sphereLabel1"].ZIndex() != 7 {
		t.Error("repeated hover rewrote the panel")
	}
}

func TestSyncTransitionInOneFrame(t *testing.T) {
	s, panels, markers := setup(t)
	s.Sync("sphereLabel1")
	markers.opacity["sphereLabel1"] = 0.3

	s.Sync("sphereLabel3")

	a, b := panels["sphereLabel1"], panels["sphereLabel3"]
	if a.ZIndex() != BackgroundZ {
		t.Errorf("previous panel z = %d, want %d", a.ZIndex(), BackgroundZ)
	}
	if markers.opacity["sphereLabel1"] != 1 {
		t.Errorf("previous marker opacity = %v, want 1", markers.opacity["sphereLabel1"])
	}
	if b.ZIndex() != ForegroundZ || b.Display() != DisplayBlock {
		t.Errorf("new panel = %+v", b)
	}
	if fg := foreground(panels); len(fg) != 1 || fg[0] != "sphereLabel3" {
		t.Errorf("foreground = %v", fg)
	}
}

func TestSyncLeave(t *testing.T) {
	s, panels, _ := setup(t)
	s.Sync("sphereLabel1")
	s.Sync("")

	p := panels["sphereLabel1"]
	if p.ZIndex() != BackgroundZ || p.Visible() {
		t.Errorf("panel after leave = %+v", p)
	}
	if s.State().Shown {
		t.Error("state still shown")
	}
	s.Sync("")
	if len(foreground(panels)) != 0 {
		t.Error("panel raised with nothing hovered")
	}
}

func TestSyncExclusivity(t *testing.T) {
	s, panels, _ := setup(t)
	seq := []string{"sphereLabel1", "sphereLabel2", "", "sphereLabel3", "sphereLabel3", "sphereLabel1", "", ""}
	for i, id := range seq {
		s.Sync(id)
		fg := foreground(panels)
		switch {
		case id == "" && len(fg) != 0:
			t.Fatalf("frame %d: foreground %v with nothing hovered", i, fg)
		case id != "" && (len(fg) != 1 || fg[0] != id):
			t.Fatalf("frame %d: foreground %v, want [%s]", i, fg, id)
		}
	}
}

func TestSyncMissingHandleIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	s := NewSynchronizer(NewRegistry(), nil)
	s.Sync("sphereLabel9")
	s.Sync("")

	warns := logs.FilterMessage("overlay handle missing").All()
	if len(warns) != 2 {
		t.Fatalf("warnings = %d, want 2", len(warns))
	}
	if warns[0].ContextMap()["id"] != "sphereLabel9" {
		t.Errorf("fields = %v", warns[0].ContextMap())
	}
}

func TestRasterizerRender(t *testing.T) {
	r, err := NewRasterizer(2)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	p := NewPanel("a", "Rotors", "Four brushless motors provide lift and control.", Rect{W: 150, H: 60})
	img := r.Render(p)
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 120 {
		t.Fatalf("size = %v, want 300x120", img.Bounds())
	}

	bg := color.RGBA{R: panelBackground.R, G: panelBackground.G, B: panelBackground.B, A: panelBackground.A}
	inked := 0
	for y := 30; y < 100; y++ {
		for x := 30; x < 270; x++ {
			if img.RGBAAt(x, y) != bg {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("no text drawn")
	}
}

func TestWrap(t *testing.T) {
	r, err := NewRasterizer(1)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	lines := wrap(r.body, "one two three four five six seven eight", fixed.I(60))
	if len(lines) < 2 {
		t.Errorf("lines = %q, expected wrapping", lines)
	}
	if got := wrap(r.body, "a\n\nb", fixed.I(500)); len(got) != 3 || got[1] != "" {
		t.Errorf("paragraphs = %q", got)
	}
	if got := wrap(r.body, "supercalifragilistic", fixed.I(5)); len(got) != 1 {
		t.Errorf("long word split: %q", got)
	}
}
