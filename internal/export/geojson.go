// Package export converts traced chains to GeoJSON.
//
// Coordinates are image pixels: x grows to the right and y grows downward,
// and each tile is represented by the pixel at its centre. Loops become
// Polygons, single-tile chains become Points and every other chain becomes a
// LineString.
package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/ironsheep/boundary-mcp/internal/features"
	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

// Options controls the GeoJSON conversion.
type Options struct {
	// TileSize maps tile positions to pixels. Must be positive.
	TileSize int

	// Tolerance is the Douglas-Peucker tolerance in pixels. 0 keeps every
	// tile centre.
	Tolerance float64
}

// TileCentre returns the pixel coordinates of the centre of tile p.
func TileCentre(p tilegrid.Pos, tileSize int) orb.Point {
	ts := float64(tileSize)
	return orb.Point{(float64(p.Col) + 0.5) * ts, (float64(p.Row) + 0.5) * ts}
}

// Geometry returns the geometry of a single chain.
//
// Returns:
//   - orb.Geometry: Point for a single-tile chain, Polygon for a loop,
//     LineString otherwise.
//   - error: Non-nil if the chain is nil or empty, or the tile size is not
//     positive.
func Geometry(c *tracer.Chain, opts Options) (orb.Geometry, error) {
	if c == nil || c.NumTiles() == 0 {
		return nil, fmt.Errorf("chain has no tiles")
	}
	if opts.TileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive, got %d", opts.TileSize)
	}

	if c.NumTiles() == 1 {
		return TileCentre(c.Tiles[0], opts.TileSize), nil
	}

	ls := make(orb.LineString, len(c.Tiles))
	for i, p := range c.Tiles {
		ls[i] = TileCentre(p, opts.TileSize)
	}
	ls = simplifyLine(ls, opts.Tolerance)

	if c.Loop && len(ls) >= 4 {
		return orb.Polygon{orb.Ring(ls)}, nil
	}
	return ls, nil
}

// simplifyLine applies Douglas-Peucker simplification, keeping the input
// when the result would lose the line's shape. Closed lines keep at least
// four points so they remain valid rings.
func simplifyLine(ls orb.LineString, tolerance float64) orb.LineString {
	if tolerance <= 0 || len(ls) < 3 {
		return ls
	}
	s := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone())
	result, ok := s.(orb.LineString)
	if !ok || len(result) < 2 {
		return ls
	}
	if ls[0] == ls[len(ls)-1] && len(result) < 4 {
		return ls
	}
	return result
}

// FeatureCollection converts chains to a GeoJSON FeatureCollection.
//
// Parameters:
//   - chains: Chains to export, in output order.
//   - objects: Optional reduced objects. An object whose ChainID matches a
//     chain adds its v_object, centroid (in tile units) and scale to that
//     chain's properties; nil exports geometry only.
//   - opts: Tile size and simplification tolerance.
//
// Each feature's ID is the chain ID. Properties carry chain_id, parent,
// is_loop, is_spliced, touches_border, truncated, num_tiles, num_steps and
// perimeter.
func FeatureCollection(chains []*tracer.Chain, objects []features.Object, opts Options) (*geojson.FeatureCollection, error) {
	byChain := make(map[int]features.Object, len(objects))
	for _, o := range objects {
		byChain[o.ChainID] = o
	}

	fc := geojson.NewFeatureCollection()
	for _, c := range chains {
		geom, err := Geometry(c, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to export chain %d: %w", chainID(c), err)
		}

		f := geojson.NewFeature(geom)
		f.ID = c.ID
		f.Properties["chain_id"] = c.ID
		f.Properties["parent"] = c.Parent
		f.Properties["is_loop"] = c.Loop
		f.Properties["is_spliced"] = c.Spliced
		f.Properties["touches_border"] = c.TouchesBorder
		f.Properties["truncated"] = c.Truncated
		f.Properties["num_tiles"] = c.NumTiles()
		f.Properties["num_steps"] = c.NumSteps()
		f.Properties["perimeter"] = c.Perimeter()

		if o, ok := byChain[c.ID]; ok {
			f.Properties["v_object"] = o.Vector[:]
			f.Properties["centroid"] = []float64{o.Centroid.X, o.Centroid.Y}
			f.Properties["scale"] = o.Scale
		}
		fc.Append(f)
	}
	return fc, nil
}

// Marshal converts chains to GeoJSON bytes. See FeatureCollection.
func Marshal(chains []*tracer.Chain, objects []features.Object, opts Options) ([]byte, error) {
	fc, err := FeatureCollection(chains, objects, opts)
	if err != nil {
		return nil, err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode geojson: %w", err)
	}
	return data, nil
}

func chainID(c *tracer.Chain) int {
	if c == nil {
		return -1
	}
	return c.ID
}
