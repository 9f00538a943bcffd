// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window" toml:"window"`
	Render  RenderConfig  `yaml:"render" toml:"render"`
	Scene   SceneConfig   `yaml:"scene" toml:"scene"`
	Remote  RemoteConfig  `yaml:"remote" toml:"remote"`
	Capture CaptureConfig `yaml:"capture" toml:"capture"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
}

// RenderConfig holds pipeline settings.
type RenderConfig struct {
	// MaxTextureUnits caps distinct textures per geometry buffer during
	// synthesis. The GPU limit is checked again when the buffer is built.
	MaxTextureUnits int  `yaml:"max_texture_units" toml:"max_texture_units"`
	ShowFPS         bool `yaml:"show_fps" toml:"show_fps"`
}

// SceneConfig lists local assertion sources.
type SceneConfig struct {
	Files   []string      `yaml:"files" toml:"files"`
	Watch   bool          `yaml:"watch" toml:"watch"`
	Animate bool          `yaml:"animate" toml:"animate"`
	Tick    time.Duration `yaml:"tick" toml:"tick"`
}

// RemoteConfig holds the websocket assertion endpoint.
type RemoteConfig struct {
	Listen string `yaml:"listen" toml:"listen"` // empty disables the endpoint
	Path   string `yaml:"path" toml:"path"`
	// Origins lists browser origins allowed besides the endpoint's own.
	Origins []string `yaml:"origins" toml:"origins"`
}

// CaptureConfig holds screenshot output settings.
type CaptureConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
	JSON    bool   `yaml:"json" toml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "scenegl",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: RenderConfig{
			MaxTextureUnits: 16,
		},
		Scene: SceneConfig{
			Tick: 16 * time.Millisecond,
		},
		Remote: RemoteConfig{
			Path: "/assertions",
		},
		Capture: CaptureConfig{
			Dir:    "screenshots",
			Prefix: "scenegl",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Render.MaxTextureUnits <= 0 {
		errs = append(errs, fmt.Errorf("render.max_texture_units must be positive, got %d", c.Render.MaxTextureUnits))
	}
	if c.Scene.Animate && c.Scene.Tick <= 0 {
		errs = append(errs, errors.New("scene.tick must be positive when animation is enabled"))
	}
	return errors.Join(errs...)
}
