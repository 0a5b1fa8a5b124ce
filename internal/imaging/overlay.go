package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

// Default overlay tints.
const (
	DefaultActivationColor = "#ffffff60"
	DefaultFilledColor     = "#ffd70090"
)

// OverlayOptions controls what RenderOverlay draws.
type OverlayOptions struct {
	// Scale is the integer nearest-neighbour upscale factor. Values below 1
	// are treated as 1.
	Scale int

	// ShowActivation tints tiles active before gap filling.
	ShowActivation bool

	// ShowFilled tints tiles activated by the gap filler.
	ShowFilled bool

	// Labels writes each chain's id next to its first tile.
	Labels bool

	// ActivationColor and FilledColor are "#rrggbb" or "#rrggbbaa" tints.
	// Empty strings select the defaults.
	ActivationColor string
	FilledColor     string
}

// OverlayResult contains the rendered overlay.
type OverlayResult struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ImageBase64 string   `json:"image_base64"`
	MimeType    string   `json:"mime_type"`
	Chains      int      `json:"chains"`
	Palette     []string `json:"palette"`
}

// Render draws tiles and chains over bg.
//
// Parameters:
//   - bg: Background image; nil draws on black. Its size should match the
//     image the grids were built from.
//   - raw: Activation grid before filling. May be nil when ShowActivation
//     is off.
//   - filled: The traced grid. Its TileSize maps tiles to pixels.
//   - chains: Chains to draw; chain i gets ChainPalette colour i.
//
// Returns the rendered image, upscaled by opts.Scale.
//
// # Layout
//
// Tile tints are blended at source resolution, then the canvas is upscaled
// with nearest-neighbour sampling so tile edges stay sharp. Chains are drawn
// afterwards at the upscaled resolution as 1-pixel polylines through tile
// centres, with a small square on each chain's first tile.
func Render(bg image.Image, raw, filled *tilegrid.Grid, chains []*tracer.Chain, opts OverlayOptions) (*image.NRGBA, error) {
	if filled == nil {
		return nil, fmt.Errorf("filled grid is required")
	}
	if opts.ShowActivation && raw == nil {
		return nil, fmt.Errorf("activation grid is required to show activation")
	}
	actColor, err := ParseHexColor(orDefault(opts.ActivationColor, DefaultActivationColor))
	if err != nil {
		return nil, err
	}
	fillColor, err := ParseHexColor(orDefault(opts.FilledColor, DefaultFilledColor))
	if err != nil {
		return nil, err
	}

	ts := filled.TileSize
	width, height := filled.Cols*ts, filled.Rows*ts
	if bg != nil {
		width, height = bg.Bounds().Dx(), bg.Bounds().Dy()
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	if bg != nil {
		draw.Draw(canvas, canvas.Bounds(), bg, bg.Bounds().Min, draw.Src)
	} else {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	for r := 0; r < filled.Rows; r++ {
		for c := 0; c < filled.Cols; c++ {
			p := tilegrid.Pos{Row: r, Col: c}
			rect := image.Rect(c*ts, r*ts, (c+1)*ts, (r+1)*ts).Intersect(canvas.Bounds())
			wasActive := raw != nil && raw.Active(p)
			switch {
			case opts.ShowActivation && wasActive:
				draw.Draw(canvas, rect, image.NewUniform(actColor), image.Point{}, draw.Over)
			case opts.ShowFilled && filled.Active(p) && !wasActive && raw != nil:
				draw.Draw(canvas, rect, image.NewUniform(fillColor), image.Point{}, draw.Over)
			}
		}
	}

	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	if scale > 1 {
		canvas = imaging.Resize(canvas, width*scale, height*scale, imaging.NearestNeighbor)
	}

	palette := ChainPalette(len(chains))
	centre := func(p tilegrid.Pos) (int, int) {
		return (p.Col*ts*2 + ts) * scale / 2, (p.Row*ts*2 + ts) * scale / 2
	}
	for i, c := range chains {
		if c.NumTiles() == 0 {
			continue
		}
		col := palette[i]
		x0, y0 := centre(c.Tiles[0])
		fillSquare(canvas, x0, y0, 1+scale/2, col)
		for _, p := range c.Tiles[1:] {
			x1, y1 := centre(p)
			drawLine(canvas, x0, y0, x1, y1, col)
			x0, y0 = x1, y1
		}
	}

	if opts.Labels {
		for i, c := range chains {
			if c.NumTiles() == 0 {
				continue
			}
			x, y := centre(c.Seed())
			d := &font.Drawer{
				Dst:  canvas,
				Src:  image.NewUniform(palette[i]),
				Face: basicfont.Face7x13,
				Dot:  fixed.P(x+3, y-3),
			}
			d.DrawString(strconv.Itoa(c.ID))
		}
	}

	return canvas, nil
}

// RenderOverlay renders like Render and encodes the result as base64 PNG.
func RenderOverlay(bg image.Image, raw, filled *tilegrid.Grid, chains []*tracer.Chain, opts OverlayOptions) (*OverlayResult, error) {
	img, err := Render(bg, raw, filled, chains, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	palette := make([]string, len(chains))
	for i, c := range ChainPalette(len(chains)) {
		cf, _ := colorful.MakeColor(c)
		palette[i] = cf.Hex()
	}

	return &OverlayResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Chains:      len(chains),
		Palette:     palette,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// drawLine draws a 1-pixel Bresenham line, clipped to the image.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if (image.Point{x0, y0}).In(img.Rect) {
			img.SetNRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		if e2 := 2 * e; e2 >= dy {
			e += dy
			x0 += sx
		} else {
			e += dx
			y0 += sy
		}
	}
}

func fillSquare(img *image.NRGBA, cx, cy, half int, c color.NRGBA) {
	rect := image.Rect(cx-half, cy-half, cx+half+1, cy+half+1).Intersect(img.Rect)
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
