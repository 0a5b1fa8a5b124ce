package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NamedRegion resolves a region name against an image of the given size.
//
// Supported names: "full", "top-left", "top-right", "bottom-left",
// "bottom-right", "top-half", "bottom-half", "left-half", "right-half" and
// "center" (the middle 50% on both axes).
func NamedRegion(width, height int, name string) (Region, error) {
	midX, midY := width/2, height/2
	switch name {
	case "", "full":
		return Region{0, 0, width, height}, nil
	case "top-left":
		return Region{0, 0, midX, midY}, nil
	case "top-right":
		return Region{midX, 0, width, midY}, nil
	case "bottom-left":
		return Region{0, midY, midX, height}, nil
	case "bottom-right":
		return Region{midX, midY, width, height}, nil
	case "top-half":
		return Region{0, 0, width, midY}, nil
	case "bottom-half":
		return Region{0, midY, width, height}, nil
	case "left-half":
		return Region{0, 0, midX, height}, nil
	case "right-half":
		return Region{midX, 0, width, height}, nil
	case "center":
		qW, qH := width/4, height/4
		return Region{qW, qH, width - qW, height - qH}, nil
	default:
		return Region{}, fmt.Errorf("unknown region: %s", name)
	}
}

// PrepareOptions selects the geometric changes applied before extraction.
// They apply to both the colour source and the activation input, so tile
// coordinates stay aligned between the two.
type PrepareOptions struct {
	// Region crops the image first. Nil keeps the whole image.
	Region *Region

	// Scale resizes the (cropped) image with Lanczos resampling. Values of
	// 0 and 1 keep the size.
	Scale float64
}

// Prepare crops and rescales img.
//
// Returns:
//   - image.Image: The prepared image; img itself when no option applies.
//   - error: Non-nil if the region lies outside the image, is empty, or the
//     scale is negative or shrinks the image to nothing.
func Prepare(img image.Image, opts PrepareOptions) (image.Image, error) {
	out := img

	if opts.Region != nil {
		r := *opts.Region
		bounds := img.Bounds()
		if r.X1 < 0 || r.Y1 < 0 || r.X2 > bounds.Dx() || r.Y2 > bounds.Dy() {
			return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds %dx%d",
				r.X1, r.Y1, r.X2, r.Y2, bounds.Dx(), bounds.Dy())
		}
		if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
			return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
		}
		rect := image.Rect(r.X1, r.Y1, r.X2, r.Y2).Add(bounds.Min)
		out = imaging.Crop(out, rect)
	}

	if opts.Scale < 0 {
		return nil, fmt.Errorf("scale must not be negative, got %g", opts.Scale)
	}
	if opts.Scale != 0 && opts.Scale != 1 {
		w := int(float64(out.Bounds().Dx()) * opts.Scale)
		h := int(float64(out.Bounds().Dy()) * opts.Scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %g reduces the image to %dx%d", opts.Scale, w, h)
		}
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}

	return out, nil
}

// ActivationOptions selects filters applied to the activation input only.
type ActivationOptions struct {
	// BlurRadius applies a Gaussian blur before activation to suppress
	// pixel noise. 0 disables it.
	BlurRadius float64

	// Luma measures tile spread on a single luminance channel instead of
	// across R, G and B. Saturated flat colours then stop activating tiles.
	Luma bool
}

// ActivationImage applies the activation filters to img. It returns img
// unchanged when no filter is selected.
func ActivationImage(img image.Image, opts ActivationOptions) (image.Image, error) {
	if opts.BlurRadius < 0 {
		return nil, fmt.Errorf("blur radius must not be negative, got %g", opts.BlurRadius)
	}

	out := img
	if opts.BlurRadius > 0 {
		out = blur.Gaussian(out, opts.BlurRadius)
	}
	if opts.Luma {
		out = effect.Grayscale(out)
	}
	return out, nil
}
