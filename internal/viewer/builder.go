package viewer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/hotspot-viewer/internal/assets"
	"github.com/Faultbox/hotspot-viewer/internal/config"
	"github.com/Faultbox/hotspot-viewer/internal/engine/animation"
	"github.com/Faultbox/hotspot-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/hotspot-viewer/pkg/math"
)

// ApplyBackground builds the background sphere around tex and adds it to the
// scene. Only the first call has an effect.
func (sc *SceneContext) ApplyBackground(tex *scenegraph.Texture, cfg config.SceneConfig, log *zap.Logger) {
	if sc.Background != nil {
		return
	}
	geo := scenegraph.SphereGeometry(cfg.BackgroundRadius, cfg.BackgroundSegments[0], cfg.BackgroundSegments[1])
	s := cfg.BackgroundScale
	geo.ApplyScale(s[0], s[1], s[2])

	mat := scenegraph.NewMaterial("background")
	mat.Unlit = true
	mat.Texture = tex
	geo.Material = mat

	sc.Background = scenegraph.NewMeshNode("background", &scenegraph.Mesh{
		Name:       "background",
		Primitives: []*scenegraph.Primitive{geo},
	})
	sc.Scene.Add(sc.Background)
	log.Info("background ready", zap.String("texture", tex.Name))
}

// ApplyMarkerIcon textures every marker with the icon.
func (sc *SceneContext) ApplyMarkerIcon(tex *scenegraph.Texture) {
	for _, mat := range sc.markerMat {
		mat.Texture = tex
	}
}

// ApplyBundle attaches the model, corrects its scale and starts its clips.
// A second bundle is ignored.
func (sc *SceneContext) ApplyBundle(b *assets.Bundle, cfg config.SceneConfig, log *zap.Logger) {
	if sc.Model != nil {
		log.Warn("model already loaded, ignoring bundle", zap.String("path", b.Path))
		return
	}
	sc.Model = b.Root
	sc.Scene.Add(b.Root)

	stats := b.Stats()
	log.Debug("bundle loaded",
		zap.String("path", b.Path),
		zap.Int("nodes", stats.Nodes),
		zap.Int("meshes", stats.Meshes),
		zap.Int("triangles", stats.Triangles),
		zap.Int("skins", stats.Skins),
		zap.Int("clips", stats.Clips),
		zap.Int("textures", stats.Textures),
	)

	sc.applyScaleCorrection(cfg, log)

	sc.Mixer = animation.NewMixer(b.Root)
	if clip := animation.FindByName(b.Clips, cfg.PrimaryClip); clip != nil {
		sc.Mixer.ClipAction(clip).Play()
	} else {
		log.Warn("primary clip not found", zap.String("clip", cfg.PrimaryClip), zap.Int("clips", len(b.Clips)))
	}
	for _, clip := range b.Clips {
		sc.Mixer.ClipAction(clip).Play()
	}
	log.Info("model ready", zap.String("path", b.Path), zap.Int("running", sc.Mixer.Running()))
}

func (sc *SceneContext) applyScaleCorrection(cfg config.SceneConfig, log *zap.Logger) {
	if sc.scaleApplied {
		return
	}
	node, ok := sc.Model.Child(cfg.ScaleCorrectionPath...)
	if !ok {
		log.Warn("scale correction target missing", zap.Ints("path", cfg.ScaleCorrectionPath))
		return
	}
	node.SetUniformScale(cfg.ScaleCorrectionFactor)
	sc.scaleApplied = true
}

// SpinBackground turns the background about Y by angle radians.
func (sc *SceneContext) SpinBackground(angle float32) {
	if sc.Background == nil {
		return
	}
	sc.backgroundY += angle
	sc.Background.Rotation = math.QuatFromAxisAngle(math.Vec3{Y: 1}, sc.backgroundY)
}

// BackgroundAngle returns the accumulated background rotation.
func (sc *SceneContext) BackgroundAngle() float32 {
	return sc.backgroundY
}

// ApplyResult routes a finished load to the matching apply step. Failures
// are logged and leave the asset absent.
func (sc *SceneContext) ApplyResult(role Role, res assets.Result, cfg config.SceneConfig, log *zap.Logger) {
	if res.Err != nil {
		log.Error("asset load failed",
			zap.Stringer("role", role),
			zap.String("path", res.Path),
			zap.Error(res.Err))
		return
	}
	switch role {
	case RoleBackground:
		sc.ApplyBackground(res.Texture, cfg, log)
	case RoleMarkerIcon:
		sc.ApplyMarkerIcon(res.Texture)
	case RoleModel:
		sc.ApplyBundle(res.Bundle, cfg, log)
	}
}

// Role says what a loaded asset is used for.
type Role int

const (
	RoleBackground Role = iota
	RoleModel
	RoleMarkerIcon
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleModel:
		return "model"
	case RoleMarkerIcon:
		return "marker_icon"
	default:
		return "background"
	}
}
