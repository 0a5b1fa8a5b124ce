// Package imaging connects image files to the boundary extractor.
//
// It loads and caches images, converts them to and from tilegrid.Raster,
// applies the optional preprocessing steps (crop, rescale, blur, luminance),
// describes mean colours and renders chain overlays as PNG.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Tile (row, col) covers pixels x in [col*tileSize, (col+1)*tileSize) and
// y in [row*tileSize, (row+1)*tileSize).
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The remaining functions are
// stateless and do not modify their inputs.
//
// # Performance Considerations
//
// For repeated extractions on the same image, use ImageCache.Raster to avoid
// redundant disk reads and conversions. Consider using Evict() or Clear() to
// manage memory for long-running processes.
package imaging
