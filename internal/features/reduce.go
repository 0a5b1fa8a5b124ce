package features

import (
	"errors"
	"fmt"

	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

// Histogram counts the turn code of every step and normalises by step count.
// A chain without steps yields an all-zero histogram.
func Histogram(c *tracer.Chain) [NumBins]float64 {
	var h [NumBins]float64
	n := c.NumSteps()
	if n == 0 {
		return h
	}
	for _, s := range c.Steps {
		h[s.Turn]++
	}
	for i := range h {
		h[i] /= float64(n)
	}
	return h
}

// TurnTotals derives the right and left turn totals from a histogram. A U-turn
// counts half towards each side.
func TurnTotals(h [NumBins]float64) (right, left float64) {
	right = h[1] + h[3] + h[5] + 0.5*h[7]
	left = h[2] + h[4] + h[6] + 0.5*h[7]
	return right, left
}

// Centroid returns the unweighted mean of every tile position in the chain.
// The repeated seed of a loop and the terminal tile of a splice are counted
// as often as they appear.
func Centroid(c *tracer.Chain) Point {
	if len(c.Tiles) == 0 {
		return Point{}
	}
	var sumX, sumY float64
	for _, p := range c.Tiles {
		sumX += float64(p.Col)
		sumY += float64(p.Row)
	}
	n := float64(len(c.Tiles))
	return Point{X: sumX / n, Y: sumY / n}
}

// ScanlineColor returns the mean colour of the region filled between the
// leftmost and rightmost chain tile on every tile row the chain spans.
//
// Parameters:
//   - c: Chain to fill. Every tile, including a loop or splice terminal,
//     contributes to the row extents.
//   - img: Source raster the chain was traced from.
//   - tileSize: Pixels per tile edge used to build the grid.
//
// Returns:
//   - r, g, b: Mean channel values in source range. All zero if no pixel was
//     covered.
//   - n: Number of pixels averaged.
//
// # Algorithm
//
// For each tile row, the pixel rows [row·tileSize, (row+1)·tileSize) and
// columns [left·tileSize, (right+1)·tileSize) are accumulated, both clipped
// to the image. Rows and columns between the extremes are filled whether or
// not they lie inside the shape, so concave shapes are over-filled.
func ScanlineColor(c *tracer.Chain, img *tilegrid.Raster, tileSize int) (r, g, b float64, n int) {
	type span struct{ left, right int }
	spans := make(map[int]span)
	for _, p := range c.Tiles {
		s, ok := spans[p.Row]
		if !ok {
			spans[p.Row] = span{p.Col, p.Col}
			continue
		}
		if p.Col < s.left {
			s.left = p.Col
		}
		if p.Col > s.right {
			s.right = p.Col
		}
		spans[p.Row] = s
	}

	minRow, _, maxRow, _ := c.Bounds()
	for row := minRow; row <= maxRow; row++ {
		s, ok := spans[row]
		if !ok {
			continue
		}
		y1, y2 := clip(row*tileSize, (row+1)*tileSize, img.Height)
		x1, x2 := clip(s.left*tileSize, (s.right+1)*tileSize, img.Width)
		for y := y1; y < y2; y++ {
			for x := x1; x < x2; x++ {
				pr, pg, pb := img.At(x, y)
				r += pr
				g += pg
				b += pb
				n++
			}
		}
	}

	if n == 0 {
		return 0, 0, 0, 0
	}
	return r / float64(n), g / float64(n), b / float64(n), n
}

// Reduce converts one chain into its feature object.
//
// Parameters:
//   - c: A closed chain with at least one tile.
//   - img: Source raster used for the colour component.
//   - tileSize: Pixels per tile edge. Must be positive.
//
// Returns:
//   - Object: Chain id, v_object, centroid (tile coordinates) and scale
//     (perimeter, the sum of step distances).
//   - error: Non-nil if the chain is empty, the raster is invalid or
//     tileSize is not positive.
func Reduce(c *tracer.Chain, img *tilegrid.Raster, tileSize int) (Object, error) {
	if c == nil || c.NumTiles() == 0 {
		return Object{}, errors.New("chain has no tiles")
	}
	if tileSize <= 0 {
		return Object{}, fmt.Errorf("tile size must be positive, got %d", tileSize)
	}
	if err := img.Validate(); err != nil {
		return Object{}, err
	}

	var v VObject
	h := Histogram(c)
	copy(v[:NumBins], h[:])
	v[indexRight], v[indexLeft] = TurnTotals(h)
	v[indexRed], v[indexGreen], v[indexBlue], _ = ScanlineColor(c, img, tileSize)

	return Object{
		ChainID:  c.ID,
		Vector:   v,
		Centroid: Centroid(c),
		Scale:    c.Perimeter(),
	}, nil
}

func clip(lo, hi, limit int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > limit {
		hi = limit
	}
	return lo, hi
}
