// Package config loads sketchpad settings from a YAML file with
// environment overrides.
//
// Precedence, highest first: environment, file, defaults. A missing file
// is not an error.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath  = "SKETCHPAD_CONFIG"
	EnvDataDir     = "SKETCHPAD_DATA_DIR"
	EnvStoreDriver = "SKETCHPAD_STORE_DRIVER"
	EnvLogLevel    = "SKETCHPAD_LOG_LEVEL"

	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config is the full application configuration.
type Config struct {
	DataDir  string        `yaml:"data_dir" validate:"required"`
	LogLevel string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	Store    StoreConfig   `yaml:"store"`
	History  HistoryConfig `yaml:"history"`
	Canvas   CanvasConfig  `yaml:"canvas"`
	MCP      MCPConfig     `yaml:"mcp"`
}

type StoreConfig struct {
	Driver    string `yaml:"driver" validate:"oneof=sqlite badger"`
	Namespace string `yaml:"namespace" validate:"required,printascii"`
	// GCSchedule is a cron expression for Badger value-log GC.
	GCSchedule string `yaml:"gc_schedule"`
}

type HistoryConfig struct {
	// MaxDepth caps the undo stack; 0 disables the cap.
	MaxDepth int `yaml:"max_depth" validate:"gte=0,lte=1000"`
}

type CanvasConfig struct {
	Width      int    `yaml:"width" validate:"gt=0,lte=16384"`
	Height     int    `yaml:"height" validate:"gt=0,lte=16384"`
	EraseColor string `yaml:"erase_color" validate:"required"`
}

type MCPConfig struct {
	// Listen enables the in-app streamable HTTP endpoint, e.g.
	// "127.0.0.1:7788". Empty disables it.
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
	// ExportDir is where export_png writes when no path is given.
	// Defaults to <data_dir>/exports.
	ExportDir string `yaml:"export_dir"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:  filepath.Join(home, ".local", "share", "sketchpad"),
		LogLevel: "info",
		Store: StoreConfig{
			Driver:     DriverSQLite,
			Namespace:  "sketchpad",
			GCSchedule: "@every 5m",
		},
		History: HistoryConfig{MaxDepth: 40},
		Canvas:  CanvasConfig{Width: 1280, Height: 800, EraseColor: "white"},
	}
}

// DefaultPath returns $SKETCHPAD_CONFIG or ~/.config/sketchpad/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sketchpad", "config.yaml")
}

// Load reads path over the defaults, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvStoreDriver); v != "" {
		c.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate checks struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SQLitePath is where the sqlite driver keeps its file.
func (c Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "sketchpad.db")
}

// BadgerPath is the directory used by the badger driver.
func (c Config) BadgerPath() string {
	return filepath.Join(c.DataDir, "badger")
}

// ExportDir is the default destination for agent exports.
func (c Config) ExportDir() string {
	if c.MCP.ExportDir != "" {
		return c.MCP.ExportDir
	}
	return filepath.Join(c.DataDir, "exports")
}

// NewLogger builds a text slog.Logger at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
