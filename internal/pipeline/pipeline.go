// Package pipeline runs boundary extraction end to end: tile activation, gap
// filling, tracing, chain filtering and feature reduction.
//
// Data flows strictly forward. Tracing runs on a single goroutine because it
// owns the filled grid; closed chains are immutable, so feature reduction fans
// out across a bounded worker group and writes results back in chain order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/boundary-mcp/internal/features"
	"github.com/ironsheep/boundary-mcp/internal/logger"
	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

const component = "pipeline"

// Stats summarises one extraction.
type Stats struct {
	Rows        int `json:"rows"`
	Cols        int `json:"cols"`
	ActiveTiles int `json:"active_tiles"`
	FilledTiles int `json:"filled_tiles"`
	Chains      int `json:"chains"`
	Branches    int `json:"branches"`
	Loops       int `json:"loops"`
	Spliced     int `json:"spliced"`
	Kept        int `json:"kept"`
}

// Result is the output of one extraction.
type Result struct {
	// RunID identifies the extraction in logs and tool output.
	RunID string `json:"run_id"`

	Config Config `json:"config"`

	// Activation is the grid before gap filling; Filled is the traced grid.
	Activation *tilegrid.Grid `json:"-"`
	Filled     *tilegrid.Grid `json:"-"`

	// Chains holds every traced chain; Kept the ones that survived
	// filtering, in the same order.
	Chains []*tracer.Chain `json:"-"`
	Kept   []*tracer.Chain `json:"chains"`

	// Objects is parallel to Kept.
	Objects []features.Object `json:"objects"`

	Stats    Stats         `json:"stats"`
	Duration time.Duration `json:"duration_ns"`
}

// Extractor runs the pipeline with a fixed configuration.
type Extractor struct {
	cfg Config
	log logger.Logger
}

// New validates cfg and returns an extractor. A nil log discards output.
func New(cfg Config, log logger.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{cfg: cfg, log: log}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Activate builds the activation grid of img and its gap-filled successor.
func (e *Extractor) Activate(img *tilegrid.Raster) (raw, filled *tilegrid.Grid, err error) {
	if err := img.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	raw, err = tilegrid.BuildActivation(img, e.cfg.TileSize, e.cfg.Threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build activation grid: %w", err)
	}
	return raw, tilegrid.FillGaps(raw), nil
}

// Extract runs the full pipeline on src.
func (e *Extractor) Extract(ctx context.Context, src *tilegrid.Raster) (*Result, error) {
	return e.ExtractWithActivation(ctx, src, src)
}

// ExtractWithActivation runs the pipeline with separate rasters for tile
// activation and for colour features, for example a blurred or grayscale
// copy for activation and the original for colour. Both rasters must have
// the same dimensions.
//
// Returns:
//   - *Result: The extraction. When tracing hits a configured limit the
//     result still carries every chain committed so far (filtered into
//     Kept) but no objects.
//   - error: ErrMalformedImage, ErrRecursionLimitExceeded, or a context
//     error from feature reduction.
func (e *Extractor) ExtractWithActivation(ctx context.Context, src, act *tilegrid.Raster) (*Result, error) {
	start := time.Now()

	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	if act.Empty() || act.Width != src.Width || act.Height != src.Height {
		return nil, fmt.Errorf("%w: activation raster does not match source dimensions", ErrMalformedImage)
	}

	res := &Result{RunID: uuid.NewString(), Config: e.cfg}
	fields := logger.Fields{"run_id": res.RunID}

	raw, filled, err := e.Activate(act)
	if err != nil {
		return nil, err
	}
	res.Activation, res.Filled = raw, filled
	res.Stats.Rows, res.Stats.Cols = filled.Rows, filled.Cols
	res.Stats.ActiveTiles = raw.ActiveCount()
	res.Stats.FilledTiles = filled.ActiveCount()
	e.log.Debug(component, "activation built", merge(fields, logger.Fields{
		"rows":         res.Stats.Rows,
		"cols":         res.Stats.Cols,
		"active_tiles": res.Stats.ActiveTiles,
		"filled_tiles": res.Stats.FilledTiles,
	}))

	chains, traceErr := tracer.Trace(filled, e.cfg.Limits())
	res.Chains = chains
	res.Kept = tracer.Filter(chains, e.cfg.MinLength)
	res.Stats.Chains = len(chains)
	res.Stats.Kept = len(res.Kept)
	for _, c := range chains {
		if c.Parent >= 0 {
			res.Stats.Branches++
		}
		if c.Loop {
			res.Stats.Loops++
		}
		if c.Spliced {
			res.Stats.Spliced++
		}
	}
	e.log.Debug(component, "chains traced", merge(fields, logger.Fields{
		"chains":   res.Stats.Chains,
		"branches": res.Stats.Branches,
		"loops":    res.Stats.Loops,
		"spliced":  res.Stats.Spliced,
		"kept":     res.Stats.Kept,
	}))

	if traceErr != nil {
		res.Duration = time.Since(start)
		if errors.Is(traceErr, tracer.ErrLimitExceeded) {
			e.log.Warning(component, "tracing limit exceeded", merge(fields, logger.Fields{
				"max_chains":      e.cfg.MaxChains,
				"max_chain_tiles": e.cfg.MaxChainTiles,
				"chains":          len(chains),
			}))
		}
		return res, fmt.Errorf("failed to trace boundaries: %w", traceErr)
	}

	objects, err := e.Reduce(ctx, res.Kept, src)
	if err != nil {
		return nil, err
	}
	res.Objects = objects
	res.Duration = time.Since(start)

	e.log.Info(component, "extraction complete", merge(fields, logger.Fields{
		"objects":     len(objects),
		"duration_ms": res.Duration.Milliseconds(),
	}))
	return res, nil
}

// Reduce converts chains to feature objects concurrently. The output is in
// chain order.
func (e *Extractor) Reduce(ctx context.Context, chains []*tracer.Chain, src *tilegrid.Raster) ([]features.Object, error) {
	objects := make([]features.Object, len(chains))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.workers())
	for i, c := range chains {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			obj, err := features.Reduce(c, src, e.cfg.TileSize)
			if err != nil {
				return fmt.Errorf("failed to reduce chain %d: %w", c.ID, err)
			}
			objects[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return objects, nil
}

func merge(base, extra logger.Fields) logger.Fields {
	out := make(logger.Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
