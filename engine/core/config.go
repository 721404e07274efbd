package core

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/hubastard/rier/engine/colors"
)

// Config for the engine run.
type Config struct {
	Title      string       `toml:"title"`
	Width      int          `toml:"width"`
	Height     int          `toml:"height"`
	VSync      bool         `toml:"vsync"`
	ClearColor colors.Color `toml:"clear_color"` // RGBA

	LogLevel      string `toml:"log_level"`      // debug, info, warn, error; empty leaves logging untouched
	TextureRoot   string `toml:"texture_root"`   // directory texture keys resolve against
	WatchTextures bool   `toml:"watch_textures"` // hot reload textures anywhere under TextureRoot
	TextureQueue  int    `toml:"texture_queue"`  // loader channel capacity
}

func DefaultConfig() Config {
	return Config{
		Title:        "rier",
		Width:        1280,
		Height:       720,
		VSync:        true,
		ClearColor:   colors.DarkGray,
		LogLevel:     "info",
		TextureRoot:  "assets",
		TextureQueue: 64,
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Keys missing from the
// file keep their defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.LogLevel != "" {
		if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return cfg, fmt.Errorf("config %s: window size %dx%d", path, cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// ParseLogLevel maps a level name to its slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
