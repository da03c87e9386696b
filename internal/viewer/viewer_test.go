package viewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/hotspot-viewer/internal/assets"
	"github.com/Faultbox/hotspot-viewer/internal/config"
	"github.com/Faultbox/hotspot-viewer/internal/engine/animation"
	"github.com/Faultbox/hotspot-viewer/internal/engine/camera"
	"github.com/Faultbox/hotspot-viewer/internal/engine/input"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/internal/logger"
	"github.com/Faultbox/hotspot-viewer/internal/overlay"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

type fakeSurface struct {
	queue [][]input.Event
	swaps int
}

func (s *fakeSurface) push(evs ...input.Event) { s.queue = append(s.queue, evs) }

func (s *fakeSurface) Poll() []input.Event {
	if len(s.queue) == 0 {
		return nil
	}
	evs := s.queue[0]
	s.queue = s.queue[1:]
	return evs
}

func (s *fakeSurface) SwapBuffers() { s.swaps++ }

type fakeRenderer struct{ frames int }

func (r *fakeRenderer) Render(*scenegraph.Scene, *camera.Perspective) { r.frames++ }

type fakeDrawer struct{ visible []string }

func (d *fakeDrawer) Draw(panels []*overlay.Panel, _, _ int) {
	d.visible = d.visible[:0]
	for _, p := range panels {
		if p.Visible() {
			d.visible = append(d.visible, p.ID)
		}
	}
}

// fakeLoader resolves every request immediately from its maps; names it
// does not know fail. Names in stalled never resolve.
type fakeLoader struct {
	textures map[string]*scenegraph.Texture
	bundles  map[string]*assets.Bundle
	stalled  map[string]bool
}

func (l *fakeLoader) LoadTexture(_ context.Context, name string) <-chan assets.Result {
	if l.stalled[name] {
		return make(chan assets.Result)
	}
	res := assets.Result{Kind: assets.KindTexture, Path: name}
	if tex, ok := l.textures[name]; ok {
		res.Texture = tex
	} else {
		res.Err = assets.ErrNotFound
	}
	return resolved(res)
}

func (l *fakeLoader) LoadBundle(_ context.Context, name string) <-chan assets.Result {
	res := assets.Result{Kind: assets.KindBundle, Path: name}
	if b, ok := l.bundles[name]; ok {
		res.Bundle = b
	} else {
		res.Err = errors.New("decode failed")
	}
	return resolved(res)
}

func resolved(res assets.Result) <-chan assets.Result {
	ch := make(chan assets.Result, 1)
	ch <- res
	close(ch)
	return ch
}

// testBundle mimics the exported model: a root whose first grandchild is
// the armature that needs scale correction, plus an animated bone.
func testBundle() (*assets.Bundle, *scenegraph.Node, *scenegraph.Node) {
	root := scenegraph.NewNode("scene")
	top := scenegraph.NewNode("Sketchfab_model")
	armature := scenegraph.NewNode("Armature")
	armature.SetUniformScale(100)
	bone := scenegraph.NewNode("Hips")
	root.Add(top)
	top.Add(armature)
	armature.Add(bone)

	clip := animation.NewClip("Armature|mixamo.com|Layer0", []animation.Track{{
		Target: bone,
		Path:   animation.PathTranslation,
		Times:  []float32{0, 1},
		Values: []float32{0, 0, 0, 0, 1, 0},
	}})
	return &assets.Bundle{
		Path:  "models/BlenderScene.gltf",
		Root:  root,
		Nodes: []*scenegraph.Node{root, top, armature, bone},
		Clips: []*animation.Clip{clip},
	}, armature, bone
}

func fullLoader(cfg *config.Config) *fakeLoader {
	b, _, _ := testBundle()
	return &fakeLoader{
		textures: map[string]*scenegraph.Texture{
			cfg.Assets.Background: {Name: cfg.Assets.Background},
			cfg.Assets.MarkerIcon: {Name: cfg.Assets.MarkerIcon},
		},
		bundles: map[string]*assets.Bundle{cfg.Assets.Model: b},
	}
}

type harness struct {
	cfg     *config.Config
	viewer  *Viewer
	surface *fakeSurface
	drawer  *fakeDrawer
	now     time.Time
}

func newHarness(t *testing.T, loader Loader) *harness {
	t.Helper()
	cfg := config.Default()
	if loader == nil {
		loader = fullLoader(cfg)
	}
	h := &harness{cfg: cfg, surface: &fakeSurface{}, drawer: &fakeDrawer{}, now: time.Unix(0, 0)}
	v, err := New(cfg, h.surface, &fakeRenderer{}, h.drawer, loader)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v.Context().Clock.now = func() time.Time { return h.now }
	v.Start(context.Background())
	h.viewer = v
	return h
}

// tick advances the fake clock by one 60 Hz frame and runs the viewer.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	h.now = h.now.Add(time.Second / 60)
	if !h.viewer.Tick() {
		t.Fatal("viewer stopped unexpectedly")
	}
}

// pixelOf projects a world point to window pixels through the viewer camera.
func (h *harness) pixelOf(p [3]float32) (int, int) {
	cam := h.viewer.Context().Camera
	clip := cam.ProjectionMatrix().Mul(cam.ViewMatrix()).MulVec4(math.Vec4{p[0], p[1], p[2], 1})
	nx, ny := clip[0]/clip[3], clip[1]/clip[3]
	w, hh := float32(h.cfg.Window.Width), float32(h.cfg.Window.Height)
	return int((nx+1)/2*w + 0.5), int((1-ny)/2*hh + 0.5)
}

// hover moves the pointer onto a world point and runs one frame.
func (h *harness) hover(t *testing.T, p [3]float32) {
	t.Helper()
	x, y := h.pixelOf(p)
	h.surface.push(input.Event{Type: input.EventMouseMove, MouseX: x, MouseY: y})
	h.tick(t)
}

func (h *harness) hoverMarker(t *testing.T, id string) {
	t.Helper()
	for _, hs := range h.cfg.Hotspots {
		if hs.ID == id {
			h.hover(t, hs.Position)
			return
		}
	}
	t.Fatalf("no hotspot %s", id)
}

func (h *harness) hoverEmpty(t *testing.T) {
	t.Helper()
	h.surface.push(input.Event{Type: input.EventMouseMove, MouseX: 2, MouseY: 2})
	h.tick(t)
}

func foreground(t *testing.T, sc *SceneContext) []string {
	t.Helper()
	var out []string
	for _, p := range sc.Panels {
		if p.ZIndex() == overlay.ForegroundZ {
			out = append(out, p.ID)
		}
	}
	return out
}

func TestOverlayExclusivity(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.tick(t)

	steps := []string{"sphereLabel1", "", "sphereLabel2", "sphereLabel3", "sphereLabel1", "", "sphereLabel3"}
	for i, id := range steps {
		if id == "" {
			h.hoverEmpty(t)
		} else {
			h.hoverMarker(t, id)
		}
		fg := foreground(t, sc)
		if id == "" {
			if len(fg) != 0 {
				t.Fatalf("step %d: foreground = %v, want none", i, fg)
			}
			continue
		}
		if len(fg) != 1 || fg[0] != id {
			t.Fatalf("step %d: foreground = %v, want [%s]", i, fg, id)
		}
		if sc.Hover != id {
			t.Errorf("step %d: hover = %q, want %q", i, sc.Hover, id)
		}
	}
}

func TestHoverIdempotence(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.hoverMarker(t, "sphereLabel2")

	panel, _ := sc.Registry.Handle("sphereLabel2")
	p := panel.(*overlay.Panel)
	for i := 0; i < 5; i++ {
		h.tick(t)
		if p.ZIndex() != overlay.ForegroundZ || p.Display() != overlay.DisplayBlock {
			t.Fatalf("frame %d: panel z=%d display=%s", i, p.ZIndex(), p.Display())
		}
		if st := sc.Overlay.State(); !st.Shown || st.ID != "sphereLabel2" {
			t.Fatalf("frame %d: state = %+v", i, st)
		}
	}
	if got := h.drawer.visible; len(got) != 1 || got[0] != "sphereLabel2" {
		t.Errorf("drawn panels = %v", got)
	}
}

func TestHoverTransitionInOneFrame(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.hoverMarker(t, "sphereLabel1")
	sc.SetMarkerOpacity("sphereLabel1", 0.3)

	h.hoverMarker(t, "sphereLabel3")

	a, _ := sc.Registry.Handle("sphereLabel1")
	b, _ := sc.Registry.Handle("sphereLabel3")
	if a.ZIndex() != overlay.BackgroundZ {
		t.Errorf("previous panel z = %d, want %d", a.ZIndex(), overlay.BackgroundZ)
	}
	if b.ZIndex() != overlay.ForegroundZ || b.Display() != overlay.DisplayBlock {
		t.Errorf("new panel z=%d display=%s", b.ZIndex(), b.Display())
	}
	if got := sc.MarkerOpacity("sphereLabel1"); got != 1 {
		t.Errorf("previous marker opacity = %v, want 1", got)
	}
}

func TestNonHotspotHitSuppressed(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.hoverMarker(t, "sphereLabel1")

	// Put a pickable mesh between the camera and the marker.
	target := math.V3(h.cfg.Hotspots[0].Position)
	mid := sc.Camera.Position.Add(target).Scale(0.5)
	geo := scenegraph.SphereGeometry(0.5, 16, 12)
	crate := scenegraph.NewMeshNode("crate", &scenegraph.Mesh{Primitives: []*scenegraph.Primitive{geo}})
	crate.ID = "crate"
	crate.Translation = mid
	sc.Scene.Add(crate)

	h.hoverMarker(t, "sphereLabel1")

	if sc.Hover != "" {
		t.Errorf("hover = %q, want none", sc.Hover)
	}
	if fg := foreground(t, sc); len(fg) != 0 {
		t.Errorf("foreground = %v, want none", fg)
	}
	if st := sc.Overlay.State(); st.Shown {
		t.Errorf("state = %+v, want hidden", st)
	}
}

func TestAssetAbsenceTolerated(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	h := newHarness(t, &fakeLoader{})
	sc := h.viewer.Context()
	for i := 0; i < 3; i++ {
		h.tick(t)
	}

	if sc.Background != nil || sc.Model != nil || sc.Mixer != nil {
		t.Fatalf("absent assets produced scene parts: bg=%v model=%v mixer=%v", sc.Background, sc.Model, sc.Mixer)
	}
	if n := logs.FilterMessage("asset load failed").Len(); n != 3 {
		t.Errorf("logged %d load failures, want 3", n)
	}
	if h.viewer.Pending() != 0 {
		t.Errorf("pending loads = %d", h.viewer.Pending())
	}

	// Hotspots keep working without any asset.
	h.hoverMarker(t, "sphereLabel2")
	if sc.Hover != "sphereLabel2" {
		t.Errorf("hover = %q", sc.Hover)
	}
	if h.surface.swaps != 4 {
		t.Errorf("swaps = %d, want 4", h.surface.swaps)
	}
}

func TestStalledBackgroundLoadTolerated(t *testing.T) {
	cfg := config.Default()
	loader := fullLoader(cfg)
	loader.stalled = map[string]bool{cfg.Assets.Background: true}
	h := newHarness(t, loader)
	sc := h.viewer.Context()

	for i := 0; i < 10; i++ {
		h.tick(t)
	}
	if sc.Background != nil {
		t.Error("background appeared without its texture")
	}
	if h.viewer.Pending() != 1 {
		t.Errorf("pending loads = %d, want 1", h.viewer.Pending())
	}
	if sc.Model == nil || sc.Mixer == nil {
		t.Error("model not applied while background load is outstanding")
	}
	if h.viewer.Frames() != 10 || h.surface.swaps != 10 {
		t.Errorf("frames = %d, swaps = %d; want 10", h.viewer.Frames(), h.surface.swaps)
	}

	h.hoverMarker(t, "sphereLabel1")
	if sc.Hover != "sphereLabel1" {
		t.Errorf("hover = %q", sc.Hover)
	}
}

func TestHoverFollowsDrawnMarkerQuad(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.tick(t)

	// The quad's half extent is ScreenSize in NDC on both axes, which is
	// ScreenSize*height/2 pixels.
	half := h.cfg.Scene.MarkerScreenSize * float32(h.cfg.Window.Height) / 2
	x, y := h.pixelOf(h.cfg.Hotspots[1].Position)

	tests := []struct {
		name   string
		dx, dy float32
		want   string
	}{
		{"near corner", 0.8 * half, -0.8 * half, "sphereLabel2"},
		{"near opposite corner", -0.8 * half, 0.8 * half, "sphereLabel2"},
		{"beyond right edge", 1.3 * half, 0, ""},
		{"beyond bottom edge", 0, 1.3 * half, ""},
	}
	for _, tt := range tests {
		h.surface.push(input.Event{Type: input.EventMouseMove, MouseX: x + int(tt.dx), MouseY: y + int(tt.dy)})
		h.tick(t)
		if sc.Hover != tt.want {
			t.Errorf("%s: hover = %q, want %q", tt.name, sc.Hover, tt.want)
		}
	}
}

func TestScaleCorrectionAppliedOnce(t *testing.T) {
	cfg := config.Default()
	b, armature, _ := testBundle()
	loader := &fakeLoader{bundles: map[string]*assets.Bundle{cfg.Assets.Model: b}}
	h := newHarness(t, loader)
	sc := h.viewer.Context()
	h.tick(t)

	want := math.Vec3{X: 0.01, Y: 0.01, Z: 0.01}
	if armature.Scale != want {
		t.Fatalf("armature scale = %+v, want %+v", armature.Scale, want)
	}

	// A later change to the node is not overwritten again.
	armature.SetUniformScale(2)
	for i := 0; i < 3; i++ {
		h.tick(t)
	}
	sc.ApplyBundle(b, cfg.Scene, zap.NewNop())
	if armature.Scale.X != 2 {
		t.Errorf("scale reapplied: %+v", armature.Scale)
	}
	if sc.Model != b.Root {
		t.Error("model root replaced")
	}
}

func TestScaleCorrectionMissingPath(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := config.Default()
	sc, err := NewSceneContext(cfg)
	if err != nil {
		t.Fatal(err)
	}
	flat := &assets.Bundle{Root: scenegraph.NewNode("scene")}
	sc.ApplyBundle(flat, cfg.Scene, zap.New(core))

	if logs.FilterMessage("scale correction target missing").Len() != 1 {
		t.Error("missing scale correction target not logged")
	}
	if logs.FilterMessage("primary clip not found").Len() != 1 {
		t.Error("missing clip not logged")
	}
	if sc.Mixer == nil {
		t.Error("mixer not created")
	}
}

func TestMixerStartsClipsAndAdvances(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.tick(t) // loads applied, clock starts with zero delta

	if sc.Mixer == nil {
		t.Fatal("mixer not created")
	}
	if sc.Mixer.Running() != 1 {
		t.Fatalf("running actions = %d, want 1", sc.Mixer.Running())
	}
	if got := sc.Mixer.Time(); got != 0 {
		t.Errorf("mixer time after first frame = %v, want 0", got)
	}

	for i := 0; i < 30; i++ {
		h.tick(t)
	}
	if got := sc.Mixer.Time(); got < 0.49 || got > 0.51 {
		t.Errorf("mixer time = %v, want ~0.5", got)
	}
}

func TestBackgroundAddedOnceAndSpins(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.tick(t)

	bg := sc.Background
	if bg == nil {
		t.Fatal("background missing")
	}
	sc.ApplyBackground(&scenegraph.Texture{Name: "other"}, h.cfg.Scene, zap.NewNop())
	if sc.Background != bg {
		t.Error("background rebuilt")
	}
	count := 0
	for _, n := range sc.Scene.Roots() {
		if n == bg {
			count++
		}
	}
	if count != 1 {
		t.Errorf("background added %d times", count)
	}

	start := sc.BackgroundAngle()
	for i := 0; i < 10; i++ {
		h.tick(t)
	}
	want := start + 10*h.cfg.Scene.BackgroundSpinPerFrame
	if diff := sc.BackgroundAngle() - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("background angle = %v, want %v", sc.BackgroundAngle(), want)
	}
	if bg.Mesh.Primitives[0].Material.Texture.Name != h.cfg.Assets.Background {
		t.Error("background texture not mapped")
	}
}

func TestMarkerIconApplied(t *testing.T) {
	h := newHarness(t, nil)
	sc := h.viewer.Context()
	h.tick(t)
	for id, n := range sc.Markers {
		tex := n.Sprite.Material.Texture
		if tex == nil || tex.Name != h.cfg.Assets.MarkerIcon {
			t.Errorf("marker %s texture = %v", id, tex)
		}
	}
}

func TestQuitEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   input.Event
	}{
		{"window close", input.Event{Type: input.EventQuit}},
		{"escape", input.Event{Type: input.EventKeyDown, Key: input.KeyEscape}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeLoader{})
			h.surface.push(tt.ev)
			if h.viewer.Tick() {
				t.Error("Tick kept running")
			}
			if h.surface.swaps != 0 {
				t.Error("frame presented after quit")
			}
		})
	}
}

func TestDragRotatesCamera(t *testing.T) {
	h := newHarness(t, &fakeLoader{})
	sc := h.viewer.Context()
	h.tick(t)
	before := sc.Camera.Position

	h.surface.push(
		input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft, MouseX: 400, MouseY: 300},
		input.Event{Type: input.EventMouseMove, MouseX: 500, MouseY: 300},
		input.Event{Type: input.EventMouseUp, Button: input.ButtonLeft, MouseX: 500, MouseY: 300},
	)
	for i := 0; i < 120; i++ {
		h.tick(t)
	}
	after := sc.Camera.Position
	if after.Distance(before) < 1 {
		t.Errorf("camera barely moved: %+v -> %+v", before, after)
	}
	target := math.V3(h.cfg.Camera.Target)
	r0, r1 := before.Distance(target), after.Distance(target)
	if diff := r1 - r0; diff > 1e-2 || diff < -1e-2 {
		t.Errorf("orbit radius changed %v -> %v", r0, r1)
	}
}

type fakeCapturer struct{ calls int }

func (c *fakeCapturer) Capture() (string, error) {
	c.calls++
	return "frame.png", nil
}

func TestScreenshotKey(t *testing.T) {
	h := newHarness(t, &fakeLoader{})
	capt := &fakeCapturer{}

	h.surface.push(input.Event{Type: input.EventKeyDown, Key: input.KeyScreenshot})
	h.tick(t)
	if capt.calls != 0 {
		t.Fatal("captured without a capturer")
	}

	h.viewer.SetCapturer(capt)
	h.surface.push(input.Event{Type: input.EventKeyDown, Key: input.KeyScreenshot})
	h.tick(t)
	h.tick(t)
	if capt.calls != 1 {
		t.Errorf("captures = %d, want 1", capt.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, &fakeLoader{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.viewer.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.viewer.Frames() != 1 {
		t.Errorf("frames = %d, want 1", h.viewer.Frames())
	}
}

func TestNewRejectsBrokenOverlayContract(t *testing.T) {
	cfg := config.Default()
	cfg.Hotspots = append(cfg.Hotspots, cfg.Hotspots[0])
	if _, err := New(cfg, &fakeSurface{}, &fakeRenderer{}, &fakeDrawer{}, &fakeLoader{}); err == nil {
		t.Error("duplicate hotspot accepted")
	}
}

func TestClockFirstDeltaZero(t *testing.T) {
	now := time.Unix(100, 0)
	c := &Clock{now: func() time.Time { return now }}
	if e, d := c.Tick(); e != 0 || d != 0 {
		t.Fatalf("first tick = %v, %v", e, d)
	}
	now = now.Add(250 * time.Millisecond)
	c.Tick()
	now = now.Add(250 * time.Millisecond)
	e, d := c.Tick()
	if e != 0.5 || d != 0.25 {
		t.Errorf("tick = %v, %v; want 0.5, 0.25", e, d)
	}
}
