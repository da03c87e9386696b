// Package config handles viewer configuration loading and management.
package config

import "fmt"

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig    `yaml:"window"`
	Assets   AssetsConfig    `yaml:"assets"`
	Camera   CameraConfig    `yaml:"camera"`
	Scene    SceneConfig     `yaml:"scene"`
	Hotspots []HotspotConfig `yaml:"hotspots"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds the output surface settings.
type WindowConfig struct {
	Title         string  `yaml:"title"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	VSync         bool    `yaml:"vsync"`
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"`
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

// AssetsConfig holds asset locations, relative to Root.
type AssetsConfig struct {
	Root       string `yaml:"root"`
	Background string `yaml:"background"`
	Model      string `yaml:"model"`
	MarkerIcon string `yaml:"marker_icon"`
}

// CameraConfig holds the perspective camera and orbit controls settings.
type CameraConfig struct {
	FOV           float32    `yaml:"fov"` // Vertical, degrees
	Near          float32    `yaml:"near"`
	Far           float32    `yaml:"far"`
	Position      [3]float32 `yaml:"position"`
	Target        [3]float32 `yaml:"target"`
	EnableDamping bool       `yaml:"enable_damping"`
	EnableZoom    bool       `yaml:"enable_zoom"`
	DampingFreq   float64    `yaml:"damping_frequency"`
	RotateSpeed   float32    `yaml:"rotate_speed"`
	ZoomSpeed     float32    `yaml:"zoom_speed"`
	PanSpeed      float32    `yaml:"pan_speed"`
}

// SceneConfig holds scene graph constants.
type SceneConfig struct {
	AmbientColor     [3]float32 `yaml:"ambient_color"`
	AmbientIntensity float32    `yaml:"ambient_intensity"`
	ClearColor       [3]float32 `yaml:"clear_color"`

	BackgroundRadius       float32    `yaml:"background_radius"`
	BackgroundSegments     [2]int     `yaml:"background_segments"` // width, height
	BackgroundScale        [3]float32 `yaml:"background_scale"`
	BackgroundSpinPerFrame float32    `yaml:"background_spin_per_frame"` // radians

	ScaleCorrectionPath   []int   `yaml:"scale_correction_path"`
	ScaleCorrectionFactor float32 `yaml:"scale_correction_factor"`
	PrimaryClip           string  `yaml:"primary_clip"`

	MarkerScreenSize float32 `yaml:"marker_screen_size"` // fraction of viewport height
}

// HotspotConfig pairs a marker in the scene with its overlay panel.
type HotspotConfig struct {
	ID       string     `yaml:"id"`
	Position [3]float32 `yaml:"position"`
	Title    string     `yaml:"title"`
	Body     string     `yaml:"body"`
	Panel    [4]float32 `yaml:"panel"` // x, y, w, h in window pixels
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the values the scene was authored for.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:         "Hotspot Viewer",
			Width:         960,
			Height:        720,
			VSync:         true,
			MaxPixelRatio: 2,
			ScreenshotDir: "screenshots",
		},
		Assets: AssetsConfig{
			Root:       ".",
			Background: "Images/BackgroundImage.jpg",
			Model:      "models/BlenderScene.gltf",
			MarkerIcon: "Images/Icon.png",
		},
		Camera: CameraConfig{
			FOV:           45,
			Near:          0.00000001,
			Far:           6000,
			Position:      [3]float32{6.77764102596008, 9.481844326473373, -5.6678968158056025},
			Target:        [3]float32{0, 0.75, 0},
			EnableDamping: true,
			EnableZoom:    true,
			DampingFreq:   6.0,
			RotateSpeed:   1.0,
			ZoomSpeed:     1.0,
			PanSpeed:      1.0,
		},
		Scene: SceneConfig{
			AmbientColor:           [3]float32{1, 1, 1},
			AmbientIntensity:       2.6,
			ClearColor:             [3]float32{0, 0, 0},
			BackgroundRadius:       500,
			BackgroundSegments:     [2]int{60, 40},
			BackgroundScale:        [3]float32{-0.1, 0.1, 0.1},
			BackgroundSpinPerFrame: 0.0003,
			ScaleCorrectionPath:    []int{0, 0},
			ScaleCorrectionFactor:  0.01,
			PrimaryClip:            "Armature|mixamo.com|Layer0",
			MarkerScreenSize:       0.04,
		},
		Hotspots: []HotspotConfig{
			{ID: "sphereLabel1", Position: [3]float32{0, 2.2, 0}, Title: "Rotors", Body: "Four brushless motors provide lift and control.", Panel: [4]float32{24, 24, 300, 120}},
			{ID: "sphereLabel2", Position: [3]float32{1.4, 1.2, 0.4}, Title: "Camera", Body: "Gimbal-stabilised camera for aerial footage.", Panel: [4]float32{24, 168, 300, 120}},
			{ID: "sphereLabel3", Position: [3]float32{-1.4, 1.0, -0.4}, Title: "Battery", Body: "Swappable battery pack, roughly 30 minutes of flight.", Panel: [4]float32{24, 312, 300, 120}},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings the viewer cannot run without.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip planes near=%g far=%g are invalid", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov %g out of range", c.Camera.FOV)
	}
	seen := make(map[string]bool, len(c.Hotspots))
	for _, h := range c.Hotspots {
		if h.ID == "" {
			return fmt.Errorf("hotspot with empty id")
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate hotspot id %q", h.ID)
		}
		seen[h.ID] = true
	}
	return nil
}

// Aspect returns the fixed output aspect ratio.
func (w WindowConfig) Aspect() float32 {
	return float32(w.Width) / float32(w.Height)
}
