// Package server implements the MCP (Model Context Protocol) server for tile
// boundary extraction.
//
// This package provides a JSON-RPC 2.0 server that exposes the extraction
// pipeline, its object and scene memories, and a few image helpers through
// the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata, including its tile grid size
//   - image_dimensions: Get width and height
//
// Boundary Extraction:
//   - boundary_activation: Activation grid before and after gap filling
//   - boundary_extract: Traced chains with v_object, centroid, scale and colour
//   - boundary_overlay: Chains drawn over the image as PNG
//   - boundary_export_geojson: Chains as a GeoJSON FeatureCollection
//
// Memories:
//   - object_memory_add, object_memory_query: v_object prototypes
//   - scene_build, scene_query: scenes of prototypes with positions and scales
//   - memory_clear: Reset either memory
//
// Every extraction tool accepts the same optional arguments: tile_size,
// threshold, min_length, max_chains and max_chain_tiles override the server
// configuration for that call; region or region_name crop, scale resizes,
// and blur and luma change only the image used for tile activation.
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images and their raster
// conversions, keyed by path. The cache persists for the lifetime of the
// server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for invalid arguments or configuration, -32000 for other
//     tool failures, or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A tracing limit is not an error for boundary_extract, boundary_overlay and
// boundary_export_geojson: they return the chains traced so far with
// "partial": true and the limit in "warning".
//
// # Usage
//
//	srv := server.New(cfg, log)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
