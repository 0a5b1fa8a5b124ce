package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
)

// squareImage returns a 32x32 black raster with a square of the given colour
// covering pixels [10,22) on both axes. With 4-pixel tiles the square's edges
// straddle tile rows/cols 2 and 5. For a grey square only those edge tiles
// are active, giving a 4x4 ring.
func squareImage(r, g, b float64) *tilegrid.Raster {
	img := tilegrid.NewRaster(32, 32)
	img.Fill(10, 10, 22, 22, r, g, b)
	return img
}

func mustExtractor(t *testing.T, cfg Config) *Extractor {
	t.Helper()
	e, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tile size", func(c *Config) { c.TileSize = 0 }},
		{"negative threshold", func(c *Config) { c.Threshold = -0.5 }},
		{"zero min length", func(c *Config) { c.MinLength = 0 }},
		{"negative max chains", func(c *Config) { c.MaxChains = -1 }},
		{"negative max chain tiles", func(c *Config) { c.MaxChainTiles = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("got %v, want ErrInvalidConfiguration", err)
			}
			if _, err := New(cfg, nil); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("New: got %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestExtract_Square(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	e := mustExtractor(t, cfg)

	res, err := e.Extract(context.Background(), squareImage(255, 255, 255))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("run id %q is not a UUID: %v", res.RunID, err)
	}
	if res.Stats.Rows != 8 || res.Stats.Cols != 8 {
		t.Errorf("grid: got %dx%d, want 8x8", res.Stats.Rows, res.Stats.Cols)
	}
	if res.Stats.ActiveTiles != 12 {
		t.Errorf("active tiles: got %d, want 12", res.Stats.ActiveTiles)
	}
	// The four inner tiles each sit between two active diagonal neighbours.
	if res.Stats.FilledTiles != 16 {
		t.Errorf("filled tiles: got %d, want 16", res.Stats.FilledTiles)
	}
	if res.Stats.Chains != len(res.Chains) || res.Stats.Kept != len(res.Kept) {
		t.Errorf("stats disagree with result: %+v", res.Stats)
	}
	if len(res.Kept) == 0 {
		t.Fatal("no chains survived filtering")
	}
	if len(res.Objects) != len(res.Kept) {
		t.Fatalf("objects: got %d, want %d", len(res.Objects), len(res.Kept))
	}

	owned := 0
	for _, c := range res.Chains {
		owned += len(c.Owned())
	}
	if owned != res.Stats.FilledTiles {
		t.Errorf("owned tiles: got %d, want %d", owned, res.Stats.FilledTiles)
	}

	for i, obj := range res.Objects {
		c := res.Kept[i]
		if obj.ChainID != c.ID {
			t.Errorf("object %d: chain id %d, want %d", i, obj.ChainID, c.ID)
		}
		if obj.Scale != c.Perimeter() {
			t.Errorf("object %d: scale %g, want %g", i, obj.Scale, c.Perimeter())
		}
		if r, g, b := obj.Vector.Color(); r <= 0 || r != g || g != b {
			t.Errorf("object %d: colour (%g, %g, %g) should be a shade of grey", i, r, g, b)
		}
	}
}

func TestExtract_BlankImage(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())
	res, err := e.Extract(context.Background(), tilegrid.NewRaster(9, 7))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.Stats.Rows != 2 || res.Stats.Cols != 3 {
		t.Errorf("grid: got %dx%d, want 2x3", res.Stats.Rows, res.Stats.Cols)
	}
	if len(res.Chains) != 0 || len(res.Objects) != 0 {
		t.Errorf("blank image produced %d chains, %d objects", len(res.Chains), len(res.Objects))
	}
}

func TestExtract_MalformedImage(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())
	tests := []struct {
		name string
		src  *tilegrid.Raster
		act  *tilegrid.Raster
	}{
		{"zero sized", tilegrid.NewRaster(0, 0), tilegrid.NewRaster(0, 0)},
		{"nil", nil, nil},
		{"short buffer", &tilegrid.Raster{Width: 4, Height: 4}, tilegrid.NewRaster(4, 4)},
		{"activation size mismatch", tilegrid.NewRaster(8, 8), tilegrid.NewRaster(8, 4)},
		{"missing activation", tilegrid.NewRaster(8, 8), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ExtractWithActivation(context.Background(), tt.src, tt.act)
			if !errors.Is(err, ErrMalformedImage) {
				t.Errorf("got %v, want ErrMalformedImage", err)
			}
		})
	}
}

func TestExtract_LimitReturnsPartialResult(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxChainTiles = 2
	e := mustExtractor(t, cfg)

	res, err := e.Extract(context.Background(), squareImage(255, 255, 255))
	if !errors.Is(err, ErrRecursionLimitExceeded) {
		t.Fatalf("got %v, want ErrRecursionLimitExceeded", err)
	}
	if res == nil {
		t.Fatal("partial result missing")
	}
	if len(res.Chains) != 1 || !res.Chains[0].Truncated {
		t.Errorf("want one truncated chain, got %d chains", len(res.Chains))
	}
	if res.Objects != nil {
		t.Error("partial result should carry no objects")
	}
}

func TestExtractWithActivation_UsesSourceColour(t *testing.T) {
	// Activation comes from a grey copy; colour must still be read from the
	// red source.
	src := squareImage(255, 0, 0)
	act := squareImage(128, 128, 128)

	e := mustExtractor(t, DefaultConfig())
	res, err := e.ExtractWithActivation(context.Background(), src, act)
	if err != nil {
		t.Fatalf("ExtractWithActivation failed: %v", err)
	}
	if len(res.Objects) == 0 {
		t.Fatal("no objects")
	}
	if res.Stats.ActiveTiles != 12 {
		t.Errorf("active tiles: got %d, want 12 from the grey activation raster", res.Stats.ActiveTiles)
	}
	if r, g, _ := res.Objects[0].Vector.Color(); r <= 0 || g != 0 {
		t.Errorf("colour: got r=%g g=%g, want red from the source", r, g)
	}
}

func TestReduce_Cancelled(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())
	res, err := e.Extract(context.Background(), squareImage(255, 255, 255))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Reduce(ctx, res.Kept, squareImage(255, 255, 255)); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
