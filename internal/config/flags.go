package config

import (
	"flag"
	"strings"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagScene      = flag.String("scene", "", "Comma-separated scene files to load")
	flagWatch      = flag.Bool("watch", false, "Reload scene files when they change")
	flagAnimate    = flag.Bool("animate", false, "Run the demo animation producer")
	flagListen     = flag.String("listen", "", "Address for the websocket assertion endpoint")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Render.ShowFPS = true
	}
	if *flagScene != "" {
		cfg.Scene.Files = nil
		for _, f := range strings.Split(*flagScene, ",") {
			if f = strings.TrimSpace(f); f != "" {
				cfg.Scene.Files = append(cfg.Scene.Files, f)
			}
		}
	}
	if *flagWatch {
		cfg.Scene.Watch = true
	}
	if *flagAnimate {
		cfg.Scene.Animate = true
	}
	if *flagListen != "" {
		cfg.Remote.Listen = *flagListen
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
