package pipeline

import (
	"fmt"
	"runtime"

	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

// Config holds the extraction parameters.
type Config struct {
	// TileSize is the tile edge in pixels. Must be positive.
	TileSize int `json:"tile_size" yaml:"tile_size"`

	// Threshold is the channel spread a tile must exceed to be active.
	// Must not be negative.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// MinLength is the minimum tile count of an interior open chain that
	// survives filtering. Must be at least 1.
	MinLength int `json:"min_length" yaml:"min_length"`

	// MaxChains and MaxChainTiles bound tracing; 0 means unlimited.
	MaxChains     int `json:"max_chains" yaml:"max_chains"`
	MaxChainTiles int `json:"max_chain_tiles" yaml:"max_chain_tiles"`

	// Workers bounds concurrent feature reduction; 0 selects GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the default extraction parameters.
func DefaultConfig() Config {
	return Config{
		TileSize:  tilegrid.DefaultTileSize,
		Threshold: tilegrid.DefaultThreshold,
		MinLength: tracer.DefaultMinLength,
	}
}

// Validate checks the configuration. Every failure wraps
// ErrInvalidConfiguration.
func (c Config) Validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile_size must be positive, got %d", ErrInvalidConfiguration, c.TileSize)
	case c.Threshold < 0:
		return fmt.Errorf("%w: threshold must not be negative, got %g", ErrInvalidConfiguration, c.Threshold)
	case c.MinLength < 1:
		return fmt.Errorf("%w: min_length must be at least 1, got %d", ErrInvalidConfiguration, c.MinLength)
	case c.MaxChains < 0:
		return fmt.Errorf("%w: max_chains must not be negative, got %d", ErrInvalidConfiguration, c.MaxChains)
	case c.MaxChainTiles < 0:
		return fmt.Errorf("%w: max_chain_tiles must not be negative, got %d", ErrInvalidConfiguration, c.MaxChainTiles)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfiguration, c.Workers)
	}
	return nil
}

// Limits returns the tracing limits.
func (c Config) Limits() tracer.Limits {
	return tracer.Limits{MaxChains: c.MaxChains, MaxChainTiles: c.MaxChainTiles}
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
