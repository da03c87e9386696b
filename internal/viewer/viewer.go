package viewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/hotspot-viewer/internal/assets"
	"github.com/Faultbox/hotspot-viewer/internal/config"
	"github.com/Faultbox/hotspot-viewer/internal/engine/camera"
	"github.com/Faultbox/hotspot-viewer/internal/engine/input"
	"github.com/Faultbox/hotspot-viewer/internal/engine/picking"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/internal/logger"
	"github.com/Faultbox/hotspot-viewer/internal/overlay"
)

// Renderer draws the scene through a camera.
type Renderer interface {
	Render(scene *scenegraph.Scene, cam *camera.Perspective)
}

// PanelDrawer draws overlay panels over the rendered frame.
type PanelDrawer interface {
	Draw(panels []*overlay.Panel, width, height int)
}

// Surface is the window the viewer presents to.
type Surface interface {
	input.Source
	SwapBuffers()
}

// Loader starts asynchronous asset loads.
type Loader interface {
	LoadTexture(ctx context.Context, name string) <-chan assets.Result
	LoadBundle(ctx context.Context, name string) <-chan assets.Result
}

// Capturer saves the current frame and returns where it went.
type Capturer interface {
	Capture() (string, error)
}

type pendingLoad struct {
	role Role
	ch   <-chan assets.Result
}

// Viewer runs the frame loop.
type Viewer struct {
	cfg      *config.Config
	ctx      *SceneContext
	surface  Surface
	renderer Renderer
	panels   PanelDrawer
	loader   Loader
	capturer Capturer
	log      *zap.Logger

	drag    input.Drag
	pending []pendingLoad
	frames  uint64
	capture bool
}

// New creates a viewer. The scene starts with markers only; call Start or
// Run to begin loading assets.
func New(cfg *config.Config, surface Surface, r Renderer, panels PanelDrawer, loader Loader) (*Viewer, error) {
	sc, err := NewSceneContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}
	return &Viewer{
		cfg:      cfg,
		ctx:      sc,
		surface:  surface,
		renderer: r,
		panels:   panels,
		loader:   loader,
		log:      logger.Named("viewer"),
	}, nil
}

// Context returns the scene state.
func (v *Viewer) Context() *SceneContext { return v.ctx }

// SetCapturer enables frame capture on the screenshot key.
func (v *Viewer) SetCapturer(c Capturer) { v.capturer = c }

// Frames returns the number of completed ticks.
func (v *Viewer) Frames() uint64 { return v.frames }

// Pending returns the number of loads not yet applied.
func (v *Viewer) Pending() int { return len(v.pending) }

// Start kicks off the background, model and marker icon loads.
func (v *Viewer) Start(ctx context.Context) {
	a := v.cfg.Assets
	v.pending = append(v.pending,
		pendingLoad{role: RoleBackground, ch: v.loader.LoadTexture(ctx, a.Background)},
		pendingLoad{role: RoleModel, ch: v.loader.LoadBundle(ctx, a.Model)},
		pendingLoad{role: RoleMarkerIcon, ch: v.loader.LoadTexture(ctx, a.MarkerIcon)},
	)
	v.log.Info("loading assets",
		zap.String("background", a.Background),
		zap.String("model", a.Model),
		zap.String("marker_icon", a.MarkerIcon))
}

// Run starts loading and ticks until the window closes or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	v.Start(ctx)

	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")
	for v.Tick() {
		if err := ctx.Err(); err != nil {
			v.log.Info("frame loop cancelled", zap.Error(err))
			return nil
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.String("hover", v.ctx.Hover))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	v.log.Info("frame loop stopped", zap.Uint64("frames", v.frames))
	return nil
}

// Tick runs one frame. It returns false once the user asked to quit.
func (v *Viewer) Tick() bool {
	sc := v.ctx

	// 1. Input
	if !v.handleInput() {
		return false
	}

	// 2. Finished loads
	v.applyLoads()

	// 3. Time and animation
	_, delta := sc.Clock.Tick()
	sc.SpinBackground(v.cfg.Scene.BackgroundSpinPerFrame)
	if sc.Mixer != nil {
		sc.Mixer.Update(delta)
	}
	sc.Scene.UpdateWorld()
	sc.Scene.UpdateSkins()
	sc.Controls.Update()

	// 4. Render
	v.renderer.Render(sc.Scene, sc.Camera)

	// 5. Picking and overlay
	sc.Hover = v.pick()
	sc.Overlay.Sync(sc.Hover)
	v.panels.Draw(sc.Panels, v.cfg.Window.Width, v.cfg.Window.Height)

	// 6. Present
	if v.capture {
		v.capture = false
		v.saveFrame()
	}
	v.surface.SwapBuffers()
	v.frames++
	return true
}

func (v *Viewer) handleInput() bool {
	sc := v.ctx
	w, h := v.cfg.Window.Width, v.cfg.Window.Height
	for _, ev := range v.surface.Poll() {
		switch ev.Type {
		case input.EventQuit:
			return false
		case input.EventKeyDown:
			switch ev.Key {
			case input.KeyEscape:
				return false
			case input.KeyScreenshot:
				v.capture = v.capturer != nil
			}
		case input.EventMouseMove:
			sc.Mouse = input.NormalizePointer(ev.MouseX, ev.MouseY, w, h)
			button, dx, dy, ok := v.drag.Move(ev.MouseX, ev.MouseY)
			if !ok {
				continue
			}
			switch button {
			case input.ButtonLeft:
				sc.Controls.Rotate(dx, dy)
			case input.ButtonRight:
				sc.Controls.Pan(dx, dy)
			case input.ButtonMiddle:
				sc.Controls.Zoom(-dy * 0.1)
			}
		case input.EventMouseDown:
			v.drag.Begin(ev.Button, ev.MouseX, ev.MouseY)
		case input.EventMouseUp:
			v.drag.End(ev.Button)
		case input.EventMouseWheel:
			sc.Controls.Zoom(ev.WheelY)
		}
	}
	return true
}

func (v *Viewer) applyLoads() {
	if len(v.pending) == 0 {
		return
	}
	kept := v.pending[:0]
	for _, p := range v.pending {
		res, ok := assets.Poll(p.ch)
		if !ok {
			kept = append(kept, p)
			continue
		}
		v.ctx.ApplyResult(p.role, res, v.cfg.Scene, v.log)
	}
	v.pending = kept
}

func (v *Viewer) saveFrame() {
	name, err := v.capturer.Capture()
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", name))
}

// pick returns the hotspot id under the pointer, or empty when the nearest
// hit is anything else.
func (v *Viewer) pick() string {
	sc := v.ctx
	ray := picking.FromCamera(sc.Mouse, sc.Camera.ViewMatrix(), sc.Camera.ProjectionMatrix())
	hit, ok := picking.Pick(ray, picking.Collect(sc.Scene, sc.Camera))
	if !ok || !sc.IsHotspot(hit.ObjectID) {
		return ""
	}
	return hit.ObjectID
}
