package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
)

// ToRaster converts an image to a Raster with 8-bit channel range (0-255).
// Alpha is ignored; the image's Bounds().Min maps to raster pixel (0, 0).
func ToRaster(img image.Image) *tilegrid.Raster {
	bounds := img.Bounds()
	r := tilegrid.NewRaster(bounds.Dx(), bounds.Dy())

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			r.Set(x, y, float64(cr>>8), float64(cg>>8), float64(cb>>8))
		}
	}
	return r
}

// FromRaster converts a Raster back to an opaque 8-bit image. Channel values
// are rounded and clamped to 0-255.
func FromRaster(r *tilegrid.Raster) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			cr, cg, cb := r.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: to8(cr), G: to8(cg), B: to8(cb), A: 255})
		}
	}
	return img
}

func to8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
