package imaging

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#rrggbb"
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

// DescribeColor formats a mean colour in 0-255 channel range, such as the
// colour part of a v_object.
//
// Components outside 0-255 are clamped. HSL values are rounded to whole
// degrees and percent.
func DescribeColor(r, g, b float64) ColorResult {
	c := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Clamped()
	r8, g8, b8 := c.RGB255()
	h, s, l := c.Hsl()

	hue := int(math.Round(h))
	if hue >= 360 {
		hue -= 360
	}
	return ColorResult{
		Hex: c.Hex(),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSL: HSLColor{
			H: hue,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa". The alpha byte defaults to
// 255.
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 9 && hex[0] == '#' {
		c, err := colorful.Hex(hex[:7])
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		var a uint8
		if _, err := fmt.Sscanf(hex[7:], "%02x", &a); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in hex color %q: %w", hex, err)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: a}, nil
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// goldenAngle spaces successive palette hues as far apart as possible.
const goldenAngle = 137.50776405003785

// ChainPalette returns n visually distinct, fully saturated colours. Colour i
// is the same for every n, so a chain keeps its colour across renders.
func ChainPalette(n int) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		c := colorful.Hsv(math.Mod(float64(i)*goldenAngle, 360), 0.85, 0.95)
		r, g, b := c.RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}
