package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/ironsheep/boundary-mcp/internal/export"
	"github.com/ironsheep/boundary-mcp/internal/features"
	"github.com/ironsheep/boundary-mcp/internal/imaging"
	"github.com/ironsheep/boundary-mcp/internal/logger"
	"github.com/ironsheep/boundary-mcp/internal/memory"
	"github.com/ironsheep/boundary-mcp/internal/pipeline"
	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

// errInvalidArgs marks argument errors, reported as JSON-RPC -32602.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "boundary_extract").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument and configuration errors return a JSON-RPC error response with
// code -32602; every other tool failure uses -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	fields := logger.Fields{"tool": params.Name, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		s.log.Error(component, err, fields)
		if errors.Is(err, errInvalidArgs) || errors.Is(err, pipeline.ErrInvalidConfiguration) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug(component, "tool call complete", fields)

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies configured defaults for omitted parameters
//  3. Loads and preprocesses images through the cache as needed
//  4. Runs the extraction pipeline and the memories
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Boundary Extraction
	case "boundary_activation":
		return s.handleBoundaryActivation(args)
	case "boundary_extract":
		return s.handleBoundaryExtract(ctx, args)
	case "boundary_overlay":
		return s.handleBoundaryOverlay(ctx, args)
	case "boundary_export_geojson":
		return s.handleBoundaryExportGeoJSON(ctx, args)

	// Object Memory
	case "object_memory_add":
		return s.handleObjectMemoryAdd(args)
	case "object_memory_query":
		return s.handleObjectMemoryQuery(args)

	// Scene Memory
	case "scene_build":
		return s.handleSceneBuild(ctx, args)
	case "scene_query":
		return s.handleSceneQuery(ctx, args)
	case "memory_clear":
		return s.handleMemoryClear(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path     string `json:"path"`
	TileSize int    `json:"tile_size"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.TileSize == 0 {
		a.TileSize = s.cfg.Pipeline.TileSize
	}
	return imaging.LoadImageInfo(s.cache, a.Path, a.TileSize)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Extraction Input ===

// extractionArgs are shared by every tool that runs the pipeline. Pointer
// fields distinguish an explicit zero from an omitted value.
type extractionArgs struct {
	Path          string          `json:"path"`
	TileSize      *int            `json:"tile_size"`
	Threshold     *float64        `json:"threshold"`
	MinLength     *int            `json:"min_length"`
	MaxChains     *int            `json:"max_chains"`
	MaxChainTiles *int            `json:"max_chain_tiles"`
	Region        *imaging.Region `json:"region"`
	RegionName    string          `json:"region_name"`
	Scale         float64         `json:"scale"`
	Blur          float64         `json:"blur"`
	Luma          bool            `json:"luma"`
}

// pipelineConfig returns base with the per-call overrides applied.
func (a extractionArgs) pipelineConfig(base pipeline.Config) pipeline.Config {
	cfg := base
	if a.TileSize != nil {
		cfg.TileSize = *a.TileSize
	}
	if a.Threshold != nil {
		cfg.Threshold = *a.Threshold
	}
	if a.MinLength != nil {
		cfg.MinLength = *a.MinLength
	}
	if a.MaxChains != nil {
		cfg.MaxChains = *a.MaxChains
	}
	if a.MaxChainTiles != nil {
		cfg.MaxChainTiles = *a.MaxChainTiles
	}
	return cfg
}

// preparedInput is an image ready for extraction. img is the cropped and
// rescaled image; src is its Raster, used for colour; act is the Raster
// used for activation, which equals src unless blur or luma is selected.
type preparedInput struct {
	img image.Image
	src *tilegrid.Raster
	act *tilegrid.Raster
}

// prepareInput loads a.Path through the cache and applies the preprocessing
// arguments. Without crop or scale the cached Raster is reused.
func (s *Server) prepareInput(a extractionArgs) (*preparedInput, error) {
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	if a.Region != nil && a.RegionName != "" {
		return nil, fmt.Errorf("%w: region and region_name cannot be combined", errInvalidArgs)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := imaging.PrepareOptions{Region: a.Region, Scale: a.Scale}
	if a.RegionName != "" {
		r, err := imaging.NamedRegion(img.Bounds().Dx(), img.Bounds().Dy(), a.RegionName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		opts.Region = &r
	}

	in := &preparedInput{}
	if opts.Region == nil && (opts.Scale == 0 || opts.Scale == 1) {
		in.img = img
		if in.src, err = s.cache.Raster(a.Path); err != nil {
			return nil, err
		}
	} else {
		if in.img, err = imaging.Prepare(img, opts); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		in.src = imaging.ToRaster(in.img)
	}

	in.act = in.src
	if a.Blur != 0 || a.Luma {
		actImg, err := imaging.ActivationImage(in.img, imaging.ActivationOptions{BlurRadius: a.Blur, Luma: a.Luma})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		in.act = imaging.ToRaster(actImg)
	}
	return in, nil
}

// extract runs the pipeline for a. When tracing hits a limit it returns the
// partial result together with an error wrapping
// pipeline.ErrRecursionLimitExceeded; see partial.
func (s *Server) extract(ctx context.Context, a extractionArgs) (*pipeline.Result, *preparedInput, error) {
	ex, err := pipeline.New(a.pipelineConfig(s.cfg.Pipeline), s.log)
	if err != nil {
		return nil, nil, err
	}
	in, err := s.prepareInput(a)
	if err != nil {
		return nil, nil, err
	}
	res, err := ex.ExtractWithActivation(ctx, in.src, in.act)
	return res, in, err
}

// partial reports whether err is a tracing limit that still produced res.
func partial(res *pipeline.Result, err error) bool {
	return res != nil && errors.Is(err, pipeline.ErrRecursionLimitExceeded)
}

// === Boundary Extraction Handlers ===

// activationResult describes the activation grid of an image.
type activationResult struct {
	Rows        int     `json:"rows"`
	Cols        int     `json:"cols"`
	TileSize    int     `json:"tile_size"`
	Threshold   float64 `json:"threshold"`
	ActiveTiles int     `json:"active_tiles"`
	FilledTiles int     `json:"filled_tiles"`
	Grid        string  `json:"grid"`
	FilledGrid  string  `json:"filled_grid"`
}

func (s *Server) handleBoundaryActivation(args json.RawMessage) (interface{}, error) {
	var a extractionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg := a.pipelineConfig(s.cfg.Pipeline)
	ex, err := pipeline.New(cfg, s.log)
	if err != nil {
		return nil, err
	}
	in, err := s.prepareInput(a)
	if err != nil {
		return nil, err
	}
	raw, filled, err := ex.Activate(in.act)
	if err != nil {
		return nil, err
	}
	return &activationResult{
		Rows:        raw.Rows,
		Cols:        raw.Cols,
		TileSize:    cfg.TileSize,
		Threshold:   cfg.Threshold,
		ActiveTiles: raw.ActiveCount(),
		FilledTiles: filled.ActiveCount(),
		Grid:        raw.String(),
		FilledGrid:  filled.String(),
	}, nil
}

// chainSummary is one chain as reported by boundary_extract. Object fields
// are set only for kept chains of a complete extraction.
type chainSummary struct {
	ID            int                  `json:"id"`
	Parent        int                  `json:"parent"`
	Seed          tilegrid.Pos         `json:"seed"`
	NumTiles      int                  `json:"num_tiles"`
	NumSteps      int                  `json:"num_steps"`
	Perimeter     float64              `json:"perimeter"`
	Loop          bool                 `json:"is_loop"`
	Spliced       bool                 `json:"is_spliced"`
	TouchesBorder bool                 `json:"touches_border"`
	Truncated     bool                 `json:"truncated,omitempty"`
	KeepReason    tracer.KeepReason    `json:"keep_reason,omitempty"`
	Tiles         []tilegrid.Pos       `json:"tiles,omitempty"`
	Steps         []tracer.Step        `json:"steps,omitempty"`
	VObject       *features.VObject    `json:"v_object,omitempty"`
	Centroid      *features.Point      `json:"centroid,omitempty"`
	Scale         float64              `json:"scale,omitempty"`
	Color         *imaging.ColorResult `json:"color,omitempty"`
	ProtoID       *int                 `json:"proto_id,omitempty"`
	NewProto      bool                 `json:"new_proto,omitempty"`
}

// extractResult is the boundary_extract response.
type extractResult struct {
	RunID      string          `json:"run_id"`
	Config     pipeline.Config `json:"config"`
	Stats      pipeline.Stats  `json:"stats"`
	Chains     []chainSummary  `json:"chains"`
	DurationMS int64           `json:"duration_ms"`
	Partial    bool            `json:"partial,omitempty"`
	Warning    string          `json:"warning,omitempty"`
}

type boundaryExtractArgs struct {
	extractionArgs
	IncludeSteps        bool     `json:"include_steps"`
	AllChains           bool     `json:"all_chains"`
	Remember            bool     `json:"remember"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
}

func (s *Server) handleBoundaryExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a boundaryExtractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	threshold, err := s.similarityThreshold(a.SimilarityThreshold)
	if err != nil {
		return nil, err
	}

	res, _, err := s.extract(ctx, a.extractionArgs)
	out := &extractResult{}
	switch {
	case err == nil:
	case partial(res, err):
		out.Partial = true
		out.Warning = err.Error()
	default:
		return nil, err
	}

	out.RunID = res.RunID
	out.Config = res.Config
	out.Stats = res.Stats
	out.DurationMS = res.Duration.Milliseconds()

	objects := make(map[int]features.Object, len(res.Objects))
	for _, o := range res.Objects {
		objects[o.ChainID] = o
	}

	chains := res.Kept
	if a.AllChains {
		chains = res.Chains
	}
	out.Chains = make([]chainSummary, 0, len(chains))
	for _, c := range chains {
		cs := chainSummary{
			ID:            c.ID,
			Parent:        c.Parent,
			Seed:          c.Seed(),
			NumTiles:      c.NumTiles(),
			NumSteps:      c.NumSteps(),
			Perimeter:     c.Perimeter(),
			Loop:          c.Loop,
			Spliced:       c.Spliced,
			TouchesBorder: c.TouchesBorder,
			Truncated:     c.Truncated,
			KeepReason:    tracer.Classify(c, res.Config.MinLength),
		}
		if a.IncludeSteps {
			cs.Tiles = c.Tiles
			cs.Steps = c.Steps
		}
		if o, ok := objects[c.ID]; ok {
			v, centroid := o.Vector, o.Centroid
			color := imaging.DescribeColor(v.Color())
			cs.VObject, cs.Centroid, cs.Scale, cs.Color = &v, &centroid, o.Scale, &color
			if a.Remember {
				id, isNew := s.objects.GetOrAdd(v, threshold)
				cs.ProtoID, cs.NewProto = &id, isNew
			}
		}
		out.Chains = append(out.Chains, cs)
	}
	return out, nil
}

// overlayResult is the boundary_overlay response.
type overlayResult struct {
	RunID   string         `json:"run_id"`
	Stats   pipeline.Stats `json:"stats"`
	Partial bool           `json:"partial,omitempty"`
	Warning string         `json:"warning,omitempty"`
	*imaging.OverlayResult
}

type boundaryOverlayArgs struct {
	extractionArgs
	OverlayScale   int  `json:"overlay_scale"`
	ShowActivation bool `json:"show_activation"`
	ShowFilled     bool `json:"show_filled"`
	Labels         bool `json:"labels"`
	AllChains      bool `json:"all_chains"`
}

func (s *Server) handleBoundaryOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a boundaryOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.OverlayScale == 0 {
		a.OverlayScale = s.cfg.Server.OverlayScale
	}

	res, in, err := s.extract(ctx, a.extractionArgs)
	out := &overlayResult{}
	switch {
	case err == nil:
	case partial(res, err):
		out.Partial = true
		out.Warning = err.Error()
	default:
		return nil, err
	}

	chains := res.Kept
	if a.AllChains {
		chains = res.Chains
	}
	overlay, err := imaging.RenderOverlay(in.img, res.Activation, res.Filled, chains, imaging.OverlayOptions{
		Scale:          a.OverlayScale,
		ShowActivation: a.ShowActivation,
		ShowFilled:     a.ShowFilled,
		Labels:         a.Labels,
	})
	if err != nil {
		return nil, err
	}
	out.RunID, out.Stats, out.OverlayResult = res.RunID, res.Stats, overlay
	return out, nil
}

// geoJSONResult is the boundary_export_geojson response.
type geoJSONResult struct {
	RunID    string          `json:"run_id"`
	Features int             `json:"features"`
	Partial  bool            `json:"partial,omitempty"`
	Warning  string          `json:"warning,omitempty"`
	GeoJSON  json.RawMessage `json:"geojson"`
}

type boundaryExportArgs struct {
	extractionArgs
	Tolerance       *float64 `json:"tolerance"`
	IncludeFeatures *bool    `json:"include_features"`
}

func (s *Server) handleBoundaryExportGeoJSON(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a boundaryExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	tolerance := s.cfg.Server.SimplifyTolerance
	if a.Tolerance != nil {
		tolerance = *a.Tolerance
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance must not be negative", errInvalidArgs)
	}

	res, _, err := s.extract(ctx, a.extractionArgs)
	out := &geoJSONResult{}
	switch {
	case err == nil:
	case partial(res, err):
		out.Partial = true
		out.Warning = err.Error()
	default:
		return nil, err
	}

	objects := res.Objects
	if a.IncludeFeatures != nil && !*a.IncludeFeatures {
		objects = nil
	}
	data, err := export.Marshal(res.Kept, objects, export.Options{TileSize: res.Config.TileSize, Tolerance: tolerance})
	if err != nil {
		return nil, err
	}
	out.RunID = res.RunID
	out.Features = len(res.Kept)
	out.GeoJSON = data
	return out, nil
}

// === Memory Handlers ===

// toVObject converts a JSON array to a v_object.
func toVObject(v []float64) (features.VObject, error) {
	var out features.VObject
	if len(v) != features.Size {
		return out, fmt.Errorf("%w: v_object must have %d elements, got %d", errInvalidArgs, features.Size, len(v))
	}
	copy(out[:], v)
	return out, nil
}

// similarityThreshold returns override or the configured threshold.
func (s *Server) similarityThreshold(override *float64) (float64, error) {
	if override == nil {
		return s.cfg.Memory.SimilarityThreshold, nil
	}
	if *override < 0 {
		return 0, fmt.Errorf("%w: similarity_threshold must not be negative", errInvalidArgs)
	}
	return *override, nil
}

// queryLimits applies the defaults for k and max_distance.
func queryLimits(k *int, maxDistance float64) (int, float64, error) {
	n := 5
	if k != nil {
		n = *k
	}
	if maxDistance < 0 {
		return 0, 0, fmt.Errorf("%w: max_distance must not be negative", errInvalidArgs)
	}
	if maxDistance == 0 {
		maxDistance = math.Inf(1)
	}
	return n, maxDistance, nil
}

type objectMemoryAddArgs struct {
	VObject []float64 `json:"v_object"`
	ID      *int      `json:"id"`
}

// memoryAddResult is the object_memory_add response.
type memoryAddResult struct {
	ID   int `json:"id"`
	Size int `json:"size"`
}

func (s *Server) handleObjectMemoryAdd(args json.RawMessage) (interface{}, error) {
	var a objectMemoryAddArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	v, err := toVObject(a.VObject)
	if err != nil {
		return nil, err
	}

	var id int
	if a.ID != nil {
		id = *a.ID
		s.objects.AddAs(v, id)
	} else {
		id = s.objects.Add(v)
	}
	return &memoryAddResult{ID: id, Size: s.objects.Len()}, nil
}

type objectMemoryQueryArgs struct {
	VObject     []float64 `json:"v_object"`
	K           *int      `json:"k"`
	MaxDistance float64   `json:"max_distance"`
}

// memoryQueryResult is the object_memory_query and scene_query response.
type memoryQueryResult struct {
	RunID   string         `json:"run_id,omitempty"`
	Scene   *memory.Scene  `json:"scene,omitempty"`
	Matches []memory.Match `json:"matches"`
	Size    int            `json:"size"`
}

func (s *Server) handleObjectMemoryQuery(args json.RawMessage) (interface{}, error) {
	var a objectMemoryQueryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	v, err := toVObject(a.VObject)
	if err != nil {
		return nil, err
	}
	k, maxDistance, err := queryLimits(a.K, a.MaxDistance)
	if err != nil {
		return nil, err
	}
	return &memoryQueryResult{
		Matches: s.objects.QueryWithin(v, k, maxDistance),
		Size:    s.objects.Len(),
	}, nil
}

type sceneArgs struct {
	extractionArgs
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	Remember            bool     `json:"remember"`
	K                   *int     `json:"k"`
	MaxDistance         float64  `json:"max_distance"`
}

// buildScene extracts a.Path and assigns prototypes to its objects. A
// tracing limit is an error here because the scene would be incomplete.
func (s *Server) buildScene(ctx context.Context, a sceneArgs) (string, memory.Scene, error) {
	threshold, err := s.similarityThreshold(a.SimilarityThreshold)
	if err != nil {
		return "", memory.Scene{}, err
	}
	res, _, err := s.extract(ctx, a.extractionArgs)
	if err != nil {
		return "", memory.Scene{}, err
	}
	return res.RunID, memory.BuildScene(res.Objects, s.objects, threshold), nil
}

// sceneBuildResult is the scene_build response.
type sceneBuildResult struct {
	RunID      string       `json:"run_id"`
	Scene      memory.Scene `json:"scene"`
	Stored     bool         `json:"stored"`
	Prototypes int          `json:"prototypes"`
	Scenes     int          `json:"scenes"`
}

func (s *Server) handleSceneBuild(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sceneArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	runID, scene, err := s.buildScene(ctx, a)
	if err != nil {
		return nil, err
	}
	if a.Remember {
		scene.ID = s.scenes.Add(scene)
	}
	return &sceneBuildResult{
		RunID:      runID,
		Scene:      scene,
		Stored:     a.Remember,
		Prototypes: s.objects.Len(),
		Scenes:     s.scenes.Len(),
	}, nil
}

func (s *Server) handleSceneQuery(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sceneArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	k, maxDistance, err := queryLimits(a.K, a.MaxDistance)
	if err != nil {
		return nil, err
	}
	runID, scene, err := s.buildScene(ctx, a)
	if err != nil {
		return nil, err
	}
	return &memoryQueryResult{
		RunID:   runID,
		Scene:   &scene,
		Matches: s.scenes.Query(scene, k, maxDistance),
		Size:    s.scenes.Len(),
	}, nil
}

type memoryClearArgs struct {
	Target string `json:"target"`
}

// memoryClearResult reports the sizes after clearing.
type memoryClearResult struct {
	Objects int `json:"objects"`
	Scenes  int `json:"scenes"`
}

func (s *Server) handleMemoryClear(args json.RawMessage) (interface{}, error) {
	var a memoryClearArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	switch a.Target {
	case "", "all":
		s.objects.Clear()
		s.scenes.Clear()
	case "objects":
		s.objects.Clear()
	case "scenes":
		s.scenes.Clear()
	default:
		return nil, fmt.Errorf("%w: unknown target %q", errInvalidArgs, a.Target)
	}
	return &memoryClearResult{Objects: s.objects.Len(), Scenes: s.scenes.Len()}, nil
}
