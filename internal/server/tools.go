package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// extractionProperties returns the schema properties shared by every tool
// that runs the extraction pipeline on an image file.
func extractionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"tile_size": map[string]interface{}{
			"type":        "integer",
			"description": "Tile edge in pixels. Defaults to the server configuration (4)",
			"minimum":     1,
		},
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Channel spread (0-255) a tile must exceed to be active. Defaults to the server configuration (30)",
			"minimum":     0,
		},
		"min_length": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum tile count of an open interior chain that is kept. Loops, spliced chains and border chains are always kept",
			"minimum":     1,
		},
		"max_chains": map[string]interface{}{
			"type":        "integer",
			"description": "Stop tracing after this many chains (0 = unlimited)",
			"minimum":     0,
		},
		"max_chain_tiles": map[string]interface{}{
			"type":        "integer",
			"description": "Stop tracing when one chain reaches this many tiles (0 = unlimited)",
			"minimum":     0,
		},
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional crop applied before tiling",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"region_name": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"full", "top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"},
			"description": "Named crop applied before tiling. Cannot be combined with region",
		},
		"scale": map[string]interface{}{
			"type":        "number",
			"description": "Optional resize factor applied after cropping. Default 1.0",
			"default":     1.0,
		},
		"blur": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian blur radius applied to the activation input only. Default 0 (off)",
			"minimum":     0,
		},
		"luma": map[string]interface{}{
			"type":        "boolean",
			"description": "Activate tiles on luminance spread instead of RGB channel spread. Flat saturated colours then stay inactive",
		},
	}
}

// withProperties returns the shared extraction properties plus extra.
func withProperties(extra map[string]interface{}) map[string]interface{} {
	props := extractionProperties()
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// vObjectProperty describes a 13-element v_object argument.
var vObjectProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "number"},
	"minItems":    13,
	"maxItems":    13,
	"description": "Feature vector: 8 turn-histogram bins, right-turn total, left-turn total, mean R, G, B (0-255)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and the tile grid size it produces.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"tile_size": map[string]interface{}{
						"type":        "integer",
						"description": "Tile edge used for the tile_rows/tile_cols figures. Defaults to the server configuration",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Boundary Extraction
		{
			Name:        "boundary_activation",
			Description: "Build the tile activation grid of an image, before and after single-tile gap filling, and return it as text ('█' active, '·' inactive) with tile counts.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": extractionProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "boundary_extract",
			Description: "Trace boundary chains in an image and return each kept chain with its turn-histogram feature vector (v_object), centroid, scale and mean colour.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"include_steps": map[string]interface{}{
						"type":        "boolean",
						"description": "Include every tile and step of each chain. Default false",
					},
					"all_chains": map[string]interface{}{
						"type":        "boolean",
						"description": "Return chains rejected by the length filter too. Default false",
					},
					"remember": map[string]interface{}{
						"type":        "boolean",
						"description": "Match each object against object memory, storing unmatched ones, and report its prototype id. Default false",
					},
					"similarity_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Distance within which a remembered object reuses an existing prototype. Defaults to the server configuration (0.5)",
						"minimum":     0,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "boundary_overlay",
			Description: "Render traced chains over the image as a base64-encoded PNG. Each chain gets its own colour; tints can mark active and gap-filled tiles.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"overlay_scale": map[string]interface{}{
						"type":        "integer",
						"description": "Nearest-neighbour upscale of the output. Defaults to the server configuration (4)",
						"minimum":     1,
					},
					"show_activation": map[string]interface{}{
						"type":        "boolean",
						"description": "Tint tiles that were active before gap filling",
					},
					"show_filled": map[string]interface{}{
						"type":        "boolean",
						"description": "Tint tiles activated by gap filling",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Write chain ids next to each chain's seed",
					},
					"all_chains": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw chains rejected by the length filter too",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "boundary_export_geojson",
			Description: "Export kept chains as a GeoJSON FeatureCollection in pixel coordinates (y down). Loops become Polygons, open chains LineStrings.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Douglas-Peucker simplification tolerance in pixels. Defaults to the server configuration",
						"minimum":     0,
					},
					"include_features": map[string]interface{}{
						"type":        "boolean",
						"description": "Add v_object, centroid and scale to feature properties. Default true",
						"default":     true,
					},
				}),
				"required": []string{"path"},
			},
		},

		// Object Memory
		{
			Name:        "object_memory_add",
			Description: "Store a v_object in object memory and return its id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"v_object": vObjectProperty,
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Optional explicit id; replaces any prototype stored under it",
					},
				},
				"required": []string{"v_object"},
			},
		},
		{
			Name:        "object_memory_query",
			Description: "Find the stored objects nearest to a v_object, ranked by weighted shape and colour distance.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"v_object": vObjectProperty,
					"k": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of matches (0 = all). Default 5",
					},
					"max_distance": map[string]interface{}{
						"type":        "number",
						"description": "Only return matches within this distance (0 = no limit)",
					},
				},
				"required": []string{"v_object"},
			},
		},

		// Scene Memory
		{
			Name:        "scene_build",
			Description: "Extract objects from an image, assign each a prototype id from object memory and return the resulting scene. Optionally store the scene.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"similarity_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Distance within which an object reuses an existing prototype. Defaults to the server configuration (0.5)",
						"minimum":     0,
					},
					"remember": map[string]interface{}{
						"type":        "boolean",
						"description": "Store the scene in scene memory. Default false",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "scene_query",
			Description: "Build the scene of an image and find the most similar stored scenes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(map[string]interface{}{
					"similarity_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Distance within which an object reuses an existing prototype",
						"minimum":     0,
					},
					"k": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of matches (0 = all). Default 5",
					},
					"max_distance": map[string]interface{}{
						"type":        "number",
						"description": "Only return scenes within this distance (0 = no limit)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "memory_clear",
			Description: "Clear object memory, scene memory, or both.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"objects", "scenes", "all"},
						"description": "Which memory to clear. Default all",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
