package tilegrid

import "fmt"

// Raster is an H×W×3 grid of numeric channel values in row-major order.
//
// Channel values are kept in the source range (8-bit images convert to
// 0-255). Raster is the only image representation the core pipeline reads;
// conversion from image.Image lives in the imaging package.
type Raster struct {
	Width  int
	Height int

	// Pix holds R, G, B for pixel (x, y) at index 3*(y*Width+x).
	Pix []float64
}

// NewRaster allocates a zero-filled raster of the given size.
func NewRaster(width, height int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]float64, 3*width*height),
	}
}

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool {
	return r == nil || r.Width <= 0 || r.Height <= 0
}

// Validate checks that the pixel buffer matches the declared dimensions.
func (r *Raster) Validate() error {
	if r.Empty() {
		return fmt.Errorf("raster has no pixels")
	}
	if len(r.Pix) != 3*r.Width*r.Height {
		return fmt.Errorf("raster buffer holds %d values, want %d for %dx%d",
			len(r.Pix), 3*r.Width*r.Height, r.Width, r.Height)
	}
	return nil
}

// At returns the channel values at pixel (x, y).
// No bounds checking is performed; caller must ensure coordinates are valid.
func (r *Raster) At(x, y int) (red, green, blue float64) {
	i := 3 * (y*r.Width + x)
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Set stores the channel values at pixel (x, y).
func (r *Raster) Set(x, y int, red, green, blue float64) {
	i := 3 * (y*r.Width + x)
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
}

// Fill sets every pixel inside the rectangle [x1,x2)×[y1,y2) to one colour.
// The rectangle is clipped to the raster.
func (r *Raster) Fill(x1, y1, x2, y2 int, red, green, blue float64) {
	x1, x2 = clampSpan(x1, x2, r.Width)
	y1, y2 = clampSpan(y1, y2, r.Height)
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			r.Set(x, y, red, green, blue)
		}
	}
}

func clampSpan(lo, hi, limit int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > limit {
		hi = limit
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
