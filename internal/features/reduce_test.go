package features

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ironsheep/boundary-mcp/internal/chaincode"
	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func traceOne(t *testing.T, rows ...string) *tracer.Chain {
	t.Helper()
	g, err := tilegrid.ParsePattern(tilegrid.DefaultTileSize, rows...)
	if err != nil {
		t.Fatalf("ParsePattern failed: %v", err)
	}
	chains, err := tracer.Trace(g, tracer.Limits{})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if len(chains) != 1 {
		t.Fatalf("chains: got %d, want 1", len(chains))
	}
	return chains[0]
}

// openChain builds an untraced chain over the given tiles with one step per
// move and the given turn codes.
func openChain(tiles []tilegrid.Pos, turns ...chaincode.TurnCode) *tracer.Chain {
	c := &tracer.Chain{Parent: -1, Tiles: tiles}
	for _, tc := range turns {
		c.Steps = append(c.Steps, tracer.Step{Turn: tc, Distance: 1})
	}
	return c
}

func TestHistogram_StraightLine(t *testing.T) {
	c := traceOne(t, ".....", ".###.", ".....")
	if c.NumTiles() != 3 || c.NumSteps() != 2 {
		t.Fatalf("got %d tiles / %d steps, want 3 / 2", c.NumTiles(), c.NumSteps())
	}

	want := [NumBins]float64{1, 0, 0, 0, 0, 0, 0, 0}
	if d := cmp.Diff(want, Histogram(c), approx); d != "" {
		t.Errorf("histogram mismatch (-want +got):\n%s", d)
	}
}

func TestHistogram_SumsToOne(t *testing.T) {
	shapes := [][]string{
		{".....", ".###.", ".#.#.", ".###.", "....."},
		{"#....", ".#...", "..###", "....#"},
		{"##", "##"},
	}
	for i, rows := range shapes {
		c := traceOne(t, rows...)
		var sum float64
		for _, v := range Histogram(c) {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("shape %d: histogram sums to %g, want 1", i, sum)
		}
	}
}

func TestHistogram_ZeroSteps(t *testing.T) {
	c := openChain([]tilegrid.Pos{{Row: 3, Col: 4}})
	if Histogram(c) != ([NumBins]float64{}) {
		t.Errorf("0-step histogram should be all zero, got %v", Histogram(c))
	}
}

func TestTurnTotals(t *testing.T) {
	tests := []struct {
		name      string
		turns     []chaincode.TurnCode
		wantRight float64
		wantLeft  float64
	}{
		{"all straight", []chaincode.TurnCode{chaincode.Straight, chaincode.Straight}, 0, 0},
		{"right turns", []chaincode.TurnCode{chaincode.SlightRight, chaincode.Right, chaincode.SharpRight, chaincode.Straight}, 0.75, 0},
		{"left turns", []chaincode.TurnCode{chaincode.SlightLeft, chaincode.Left}, 0, 1},
		{"u-turn splits", []chaincode.TurnCode{chaincode.UTurn}, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := make([]tilegrid.Pos, len(tt.turns)+1)
			right, left := TurnTotals(Histogram(openChain(tiles, tt.turns...)))
			if math.Abs(right-tt.wantRight) > 1e-9 || math.Abs(left-tt.wantLeft) > 1e-9 {
				t.Errorf("got right=%g left=%g, want right=%g left=%g", right, left, tt.wantRight, tt.wantLeft)
			}
		})
	}
}

func TestCentroid_RingCountsRepeatedSeed(t *testing.T) {
	// Eight ring tiles around (2,2) plus the seed (1,1) a second time.
	c := traceOne(t, ".....", ".###.", ".#.#.", ".###.", ".....")
	if c.NumTiles() != 9 {
		t.Fatalf("tiles: got %d, want 9", c.NumTiles())
	}
	want := Point{X: 17.0 / 9, Y: 17.0 / 9}
	if d := cmp.Diff(want, Centroid(c), approx); d != "" {
		t.Errorf("centroid mismatch (-want +got):\n%s", d)
	}
}

func TestReduce_SolidRedRegion(t *testing.T) {
	img := tilegrid.NewRaster(16, 16)
	img.Fill(4, 4, 12, 12, 255, 0, 0)

	// Square loop over tiles (1,1)-(2,2): the scanline fill covers exactly
	// the 8x8 red block.
	c := openChain([]tilegrid.Pos{
		{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 2}, {Row: 2, Col: 1}, {Row: 1, Col: 1},
	}, chaincode.Straight, chaincode.Right, chaincode.Right, chaincode.Right)
	c.Loop = true

	obj, err := Reduce(c, img, 4)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	r, g, b := obj.Vector.Color()
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("colour: got (%g, %g, %g), want (255, 0, 0)", r, g, b)
	}
	if obj.Scale != 4 {
		t.Errorf("scale: got %g, want 4", obj.Scale)
	}
	// Five tiles with the seed (1,1) counted twice.
	if d := cmp.Diff(Point{X: 1.4, Y: 1.4}, obj.Centroid, approx); d != "" {
		t.Errorf("centroid mismatch (-want +got):\n%s", d)
	}

	if _, _, _, n := ScanlineColor(c, img, 4); n != 64 {
		t.Errorf("filled pixels: got %d, want 64", n)
	}
}

func TestScanlineColor_OverfillsConcaveRows(t *testing.T) {
	// Two arms of a U on tile row 0 with a blue gap between them. The gap is
	// filled along with the arms.
	img := tilegrid.NewRaster(3, 1)
	img.Set(0, 0, 255, 0, 0)
	img.Set(1, 0, 0, 0, 255)
	img.Set(2, 0, 255, 0, 0)

	c := openChain([]tilegrid.Pos{{Row: 0, Col: 0}, {Row: 0, Col: 2}}, chaincode.Straight)
	r, g, b, n := ScanlineColor(c, img, 1)
	if n != 3 {
		t.Fatalf("filled pixels: got %d, want 3", n)
	}
	want := []float64{170, 0, 85}
	if d := cmp.Diff(want, []float64{r, g, b}, approx); d != "" {
		t.Errorf("colour mismatch (-want +got):\n%s", d)
	}
}

func TestScanlineColor_PartialTiles(t *testing.T) {
	// 5x5 image, tile size 4: tile (1,1) covers only pixel (4,4).
	img := tilegrid.NewRaster(5, 5)
	img.Set(4, 4, 10, 20, 30)

	c := openChain([]tilegrid.Pos{{Row: 1, Col: 1}})
	r, g, b, n := ScanlineColor(c, img, 4)
	if n != 1 || r != 10 || g != 20 || b != 30 {
		t.Errorf("got (%g, %g, %g) over %d pixels, want (10, 20, 30) over 1", r, g, b, n)
	}
}

func TestReduce_SingleTile(t *testing.T) {
	img := tilegrid.NewRaster(8, 8)
	c := openChain([]tilegrid.Pos{{Row: 1, Col: 0}})
	c.ID = 7

	obj, err := Reduce(c, img, 4)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if obj.ChainID != 7 || obj.Scale != 0 {
		t.Errorf("got chain %d scale %g, want chain 7 scale 0", obj.ChainID, obj.Scale)
	}
	if obj.Centroid != (Point{X: 0, Y: 1}) {
		t.Errorf("centroid: got %+v, want (0, 1)", obj.Centroid)
	}
	for i, v := range obj.Vector.Shape() {
		if v != 0 {
			t.Errorf("shape[%d]: got %g, want 0", i, v)
		}
	}
}

func TestReduce_Errors(t *testing.T) {
	img := tilegrid.NewRaster(4, 4)
	c := openChain([]tilegrid.Pos{{Row: 0, Col: 0}})

	tests := []struct {
		name     string
		chain    *tracer.Chain
		img      *tilegrid.Raster
		tileSize int
	}{
		{"nil chain", nil, img, 4},
		{"empty chain", &tracer.Chain{}, img, 4},
		{"zero tile size", c, img, 0},
		{"empty raster", c, tilegrid.NewRaster(0, 0), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Reduce(tt.chain, tt.img, tt.tileSize); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestVObject_Layout(t *testing.T) {
	var v VObject
	for i := range v {
		v[i] = float64(i)
	}
	if len(v.Shape()) != 10 || len(v.ColorPart()) != 3 {
		t.Fatalf("got shape %d / colour %d, want 10 / 3", len(v.Shape()), len(v.ColorPart()))
	}
	if v.RightTurn() != 8 || v.LeftTurn() != 9 {
		t.Errorf("turn totals at wrong index: %g, %g", v.RightTurn(), v.LeftTurn())
	}
	if r, g, b := v.Color(); r != 10 || g != 11 || b != 12 {
		t.Errorf("colour at wrong index: %g, %g, %g", r, g, b)
	}
}
