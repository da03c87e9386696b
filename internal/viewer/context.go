// Package viewer assembles the scene, wires loaders into it and runs the
// frame loop that drives animation, camera, picking and the overlay.
package viewer

import (
	"fmt"

	"github.com/Faultbox/hotspot-viewer/internal/config"
	"github.com/Faultbox/hotspot-viewer/internal/engine/animation"
	"github.com/Faultbox/hotspot-viewer/internal/engine/camera"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/internal/overlay"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// SceneContext owns all mutable viewer state. It is only touched from the
// frame loop goroutine.
type SceneContext struct {
	Scene    *scenegraph.Scene
	Camera   *camera.Perspective
	Controls *camera.OrbitControls

	// Background and Model stay nil until their assets load. Mixer is
	// created with the model.
	Background *scenegraph.Node
	Model      *scenegraph.Node
	Mixer      *animation.Mixer

	Markers      map[string]*scenegraph.Node
	MarkerIDs    []string
	markerMat    map[string]*scenegraph.Material
	backgroundY  float32
	scaleApplied bool

	// Mouse is the last pointer position in normalized device coordinates.
	Mouse math.Vec2
	// Hover is the hotspot under the pointer in the last frame, or empty.
	Hover string

	Registry *overlay.Registry
	Panels   []*overlay.Panel
	Overlay  *overlay.Synchronizer
	Clock    *Clock
}

// NewSceneContext builds the initial scene from cfg: camera, controls,
// hotspot markers and their overlay panels. Asset-backed parts are added
// later as loads complete.
func NewSceneContext(cfg *config.Config) (*SceneContext, error) {
	cc := cfg.Camera
	cam := camera.NewPerspective(cc.FOV, cfg.Window.Aspect(), cc.Near, cc.Far)
	cam.Position = math.V3(cc.Position)

	controls := camera.NewOrbitControls(cam, math.V3(cc.Target), cc.DampingFreq)
	controls.EnableDamping = cc.EnableDamping
	controls.EnableZoom = cc.EnableZoom
	controls.RotateSpeed = cc.RotateSpeed
	controls.ZoomSpeed = cc.ZoomSpeed
	controls.PanSpeed = cc.PanSpeed
	controls.ViewportHeight = float32(cfg.Window.Height)

	sc := &SceneContext{
		Scene:     scenegraph.NewScene(),
		Camera:    cam,
		Controls:  controls,
		Markers:   make(map[string]*scenegraph.Node),
		markerMat: make(map[string]*scenegraph.Material),
		Registry:  overlay.NewRegistry(),
		Clock:     NewClock(),
	}

	for _, h := range cfg.Hotspots {
		mat := scenegraph.NewMaterial("marker")
		mat.Transparent = true
		mat.Unlit = true
		marker := scenegraph.NewSpriteNode(h.ID, mat, cfg.Scene.MarkerScreenSize)
		marker.Translation = math.V3(h.Position)
		sc.Scene.Add(marker)
		sc.Markers[h.ID] = marker
		sc.MarkerIDs = append(sc.MarkerIDs, h.ID)
		sc.markerMat[h.ID] = mat

		panel := overlay.NewPanel(h.ID, h.Title, h.Body, overlay.Rect{
			X: h.Panel[0], Y: h.Panel[1], W: h.Panel[2], H: h.Panel[3],
		})
		if err := sc.Registry.Register(h.ID, panel); err != nil {
			return nil, err
		}
		sc.Panels = append(sc.Panels, panel)
	}

	if err := sc.Registry.Validate(sc.MarkerIDs); err != nil {
		return nil, fmt.Errorf("overlay contract: %w", err)
	}
	sc.Overlay = overlay.NewSynchronizer(sc.Registry, sc)
	sc.Scene.UpdateWorld()
	return sc, nil
}

// IsHotspot reports whether id names a registered hotspot marker.
func (sc *SceneContext) IsHotspot(id string) bool {
	if id == "" {
		return false
	}
	_, ok := sc.Markers[id]
	return ok
}

// SetMarkerOpacity implements overlay.Markers.
func (sc *SceneContext) SetMarkerOpacity(id string, opacity float32) bool {
	mat, ok := sc.markerMat[id]
	if !ok {
		return false
	}
	mat.Opacity = opacity
	return true
}

// MarkerOpacity returns the opacity of a marker, or 0 if unknown.
func (sc *SceneContext) MarkerOpacity(id string) float32 {
	if mat, ok := sc.markerMat[id]; ok {
		return mat.Opacity
	}
	return 0
}
