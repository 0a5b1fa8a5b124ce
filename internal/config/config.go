// Package config loads server configuration from an optional YAML file and
// environment overrides.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, the
// environment. Per-call tool arguments override all three.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/boundary-mcp/internal/logger"
	"github.com/ironsheep/boundary-mcp/internal/memory"
	"github.com/ironsheep/boundary-mcp/internal/pipeline"
)

// Environment variables read by ApplyEnv.
const (
	EnvTileSize  = "BOUNDARY_MCP_TILE_SIZE"
	EnvThreshold = "BOUNDARY_MCP_THRESHOLD"
	EnvMinLength = "BOUNDARY_MCP_MIN_LENGTH"
	EnvWorkers   = "BOUNDARY_MCP_WORKERS"
	EnvLogLevel  = "BOUNDARY_MCP_LOG_LEVEL"
)

// MemoryConfig configures the object memory.
type MemoryConfig struct {
	ShapeWeight         float64 `yaml:"shape_weight"`
	ColorWeight         float64 `yaml:"color_weight"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// ServerConfig configures tool defaults.
type ServerConfig struct {
	// OverlayScale is the default pixel upscale of rendered overlays.
	OverlayScale int `yaml:"overlay_scale"`

	// SimplifyTolerance is the default Douglas-Peucker tolerance, in pixels,
	// for GeoJSON export. 0 disables simplification.
	SimplifyTolerance float64 `yaml:"simplify_tolerance"`
}

// Config is the complete server configuration.
type Config struct {
	Pipeline pipeline.Config `yaml:"pipeline"`
	Memory   MemoryConfig    `yaml:"memory"`
	Server   ServerConfig    `yaml:"server"`
	LogLevel string          `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pipeline: pipeline.DefaultConfig(),
		Memory: MemoryConfig{
			ShapeWeight:         memory.DefaultShapeWeight,
			ColorWeight:         memory.DefaultColorWeight,
			SimilarityThreshold: memory.DefaultSimilarityThreshold,
		},
		Server: ServerConfig{
			OverlayScale: 4,
		},
		LogLevel: "info",
	}
}

// Load returns the defaults overlaid with the YAML file at path and then with
// the process environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.Decode(bytes.NewReader(data)); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg. Keys missing from the document keep
// their current values; unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv overlays the BOUNDARY_MCP_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTileSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvTileSize, err)
		}
		c.Pipeline.TileSize = n
	}
	if v, ok := lookup(EnvThreshold); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvThreshold, err)
		}
		c.Pipeline.Threshold = f
	}
	if v, ok := lookup(EnvMinLength); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvMinLength, err)
		}
		c.Pipeline.MinLength = n
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvWorkers, err)
		}
		c.Pipeline.Workers = n
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if c.Memory.ShapeWeight < 0 || c.Memory.ColorWeight < 0 {
		return fmt.Errorf("%w: memory weights must not be negative", pipeline.ErrInvalidConfiguration)
	}
	if c.Memory.SimilarityThreshold < 0 {
		return fmt.Errorf("%w: similarity_threshold must not be negative", pipeline.ErrInvalidConfiguration)
	}
	if c.Server.OverlayScale < 1 {
		return fmt.Errorf("%w: overlay_scale must be at least 1, got %d", pipeline.ErrInvalidConfiguration, c.Server.OverlayScale)
	}
	if c.Server.SimplifyTolerance < 0 {
		return fmt.Errorf("%w: simplify_tolerance must not be negative", pipeline.ErrInvalidConfiguration)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrInvalidConfiguration, err)
	}
	return nil
}
