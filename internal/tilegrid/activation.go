package tilegrid

import "fmt"

// Default activation parameters.
const (
	DefaultTileSize  = 4
	DefaultThreshold = 30.0
)

// BuildActivation reduces a raster to a grid of tile activations.
//
// Parameters:
//   - img: Source raster. Must contain at least one pixel.
//   - tileSize: Pixels per tile edge. Must be positive.
//   - threshold: Activation threshold. Must not be negative.
//
// Returns:
//   - *Grid: ⌈H/tileSize⌉ × ⌈W/tileSize⌉ grid with Active set on every tile
//     whose channel spread exceeds threshold.
//   - error: Non-nil if the parameters or the raster are invalid.
//
// # Algorithm
//
// For each tile, every channel value of every pixel inside the tile is
// sampled and the spread max(value) − min(value) is computed. The tile is
// active when spread > threshold (strictly greater). Tiles on the right and
// bottom edges may be partial when the image size is not a multiple of
// tileSize; only the pixels that exist are sampled.
func BuildActivation(img *Raster, tileSize int, threshold float64) (*Grid, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", tileSize)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("threshold must not be negative, got %g", threshold)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	rows := (img.Height + tileSize - 1) / tileSize
	cols := (img.Width + tileSize - 1) / tileSize
	g := NewGrid(rows, cols, tileSize, threshold)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			spread := TileSpread(img, tileSize, Pos{Row: r, Col: c})
			if spread > threshold {
				g.tiles[r*cols+c].Active = true
			}
		}
	}

	return g, nil
}

// TileSpread returns max − min over every channel value of the pixels covered
// by tile p. A tile that covers no pixels has a spread of 0.
func TileSpread(img *Raster, tileSize int, p Pos) float64 {
	y1, y2 := clampSpan(p.Row*tileSize, (p.Row+1)*tileSize, img.Height)
	x1, x2 := clampSpan(p.Col*tileSize, (p.Col+1)*tileSize, img.Width)
	if y1 >= y2 || x1 >= x2 {
		return 0
	}

	first := 3 * (y1*img.Width + x1)
	lo, hi := img.Pix[first], img.Pix[first]
	for y := y1; y < y2; y++ {
		row := img.Pix[3*(y*img.Width+x1) : 3*(y*img.Width+x2)]
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return hi - lo
}
