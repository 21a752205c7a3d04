// Package config reads process settings from the environment and builds the
// shared logger.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
)

// Environment variable names.
const (
	EnvLogLevel       = "AVATAR_MCP_LOG_LEVEL"
	EnvStoreDir       = "AVATAR_MCP_STORE_DIR"
	EnvFont           = "AVATAR_MCP_FONT"
	EnvOutlineColor   = "AVATAR_MCP_OUTLINE_COLOR"
	EnvFillColor      = "AVATAR_MCP_FILL_COLOR"
	EnvMaxSourceBytes = "AVATAR_MCP_MAX_SOURCE_BYTES"
	EnvFetchTimeout   = "AVATAR_MCP_FETCH_TIMEOUT"
)

// Config holds every tunable the binaries read at start-up.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error, off.
	LogLevel string

	// StoreDir selects a directory store. Empty keeps frames in memory.
	StoreDir string

	// FontPath overrides the embedded caption font.
	FontPath string

	// OutlineColor and FillColor are hex caption colours. Empty keeps the
	// defaults (white halo, black glyphs).
	OutlineColor string
	FillColor    string

	// MaxSourceBytes caps the encoded sprite sheet size.
	MaxSourceBytes int64

	// FetchTimeout bounds remote sprite sheet downloads.
	FetchTimeout time.Duration
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		LogLevel:       "info",
		MaxSourceBytes: imaging.DefaultMaxSourceBytes,
		FetchTimeout:   imaging.DefaultFetchTimeout,
	}
}

// FromEnv reads the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load reads settings through getenv, starting from Default.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		if hclog.LevelFromString(v) == hclog.NoLevel {
			return Config{}, fmt.Errorf("%s: unknown log level %q", EnvLogLevel, v)
		}
		cfg.LogLevel = strings.ToLower(v)
	}
	cfg.StoreDir = strings.TrimSpace(getenv(EnvStoreDir))
	cfg.FontPath = strings.TrimSpace(getenv(EnvFont))
	cfg.OutlineColor = strings.TrimSpace(getenv(EnvOutlineColor))
	cfg.FillColor = strings.TrimSpace(getenv(EnvFillColor))

	if v := strings.TrimSpace(getenv(EnvMaxSourceBytes)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: must be a positive integer, got %q", EnvMaxSourceBytes, v)
		}
		cfg.MaxSourceBytes = n
	}
	if v := strings.TrimSpace(getenv(EnvFetchTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%s: must be a positive duration, got %q", EnvFetchTimeout, v)
		}
		cfg.FetchTimeout = d
	}

	return cfg, nil
}

// LoaderOptions maps the config onto the image loader.
func (c Config) LoaderOptions() imaging.LoaderOptions {
	return imaging.LoaderOptions{MaxBytes: c.MaxSourceBytes, Timeout: c.FetchTimeout}
}

// CompositorOptions maps the config onto the caption renderer.
func (c Config) CompositorOptions() (imaging.CompositorOptions, error) {
	opts := imaging.CompositorOptions{FontPath: c.FontPath}
	if c.OutlineColor != "" {
		col, err := imaging.ParseHexColor(c.OutlineColor)
		if err != nil {
			return opts, fmt.Errorf("outline color: %w", err)
		}
		opts.OutlineColor = col
	}
	if c.FillColor != "" {
		col, err := imaging.ParseHexColor(c.FillColor)
		if err != nil {
			return opts, fmt.Errorf("fill color: %w", err)
		}
		opts.FillColor = col
	}
	return opts, nil
}

// NewLogger returns the root logger, writing to w at the configured level.
func (c Config) NewLogger(name string, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(c.LogLevel),
		Output: w,
	})
}
