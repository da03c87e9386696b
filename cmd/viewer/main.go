// Package main is the entry point for the hotspot viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/hotspot-viewer/internal/assets"
	"github.com/Faultbox/hotspot-viewer/internal/config"
	"github.com/Faultbox/hotspot-viewer/internal/engine/debug"
	"github.com/Faultbox/hotspot-viewer/internal/engine/renderer"
	"github.com/Faultbox/hotspot-viewer/internal/engine/ui2d"
	"github.com/Faultbox/hotspot-viewer/internal/engine/window"
	"github.com/Faultbox/hotspot-viewer/internal/logger"
	"github.com/Faultbox/hotspot-viewer/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Hotspot Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	manager := assets.NewManager()
	defer manager.Close()
	if err := manager.AddDir(cfg.Assets.Root); err != nil {
		return fmt.Errorf("asset root: %w", err)
	}

	win, err := window.New(window.Config{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		VSync:  cfg.Window.VSync,
	})
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	// The drawable may be larger than the window on HiDPI screens.
	dw, dh := win.DrawableSize()
	c := cfg.Scene.ClearColor
	scene, err := renderer.New(renderer.Config{
		Width:            dw,
		Height:           dh,
		ClearColor:       [4]float32{c[0], c[1], c[2], 1},
		AmbientColor:     cfg.Scene.AmbientColor,
		AmbientIntensity: cfg.Scene.AmbientIntensity,
	})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer scene.Close()

	ratio := win.PixelRatio(float64(cfg.Window.MaxPixelRatio))
	panels, err := ui2d.New(ratio)
	if err != nil {
		return fmt.Errorf("failed to create overlay renderer: %w", err)
	}
	defer panels.Close()

	logger.Info("surface ready",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.Int("drawable_width", dw),
		zap.Int("drawable_height", dh),
		zap.Float64("pixel_ratio", ratio))

	v, err := viewer.New(cfg, win, scene, panels, assets.NewLoader(manager))
	if err != nil {
		return err
	}

	v.SetCapturer(&frameCapture{
		renderer: scene,
		shots:    debug.NewScreenshots(cfg.Window.ScreenshotDir, "viewer"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return v.Run(ctx)
}

// frameCapture saves the back buffer on the screenshot key.
type frameCapture struct {
	renderer *renderer.Renderer
	shots    *debug.Screenshots
}

func (c *frameCapture) Capture() (string, error) {
	pixels, w, h := c.renderer.ReadPixels()
	return c.shots.SavePixels(pixels, w, h)
}
