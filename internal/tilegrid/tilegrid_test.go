package tilegrid

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// mustPattern builds a grid from a text pattern or fails the test.
func mustPattern(t *testing.T, rows ...string) *Grid {
	t.Helper()
	g, err := ParsePattern(DefaultTileSize, rows...)
	if err != nil {
		t.Fatalf("ParsePattern failed: %v", err)
	}
	return g
}

// patternOf renders a grid back to '#'/'.' rows for comparisons.
func patternOf(g *Grid) []string {
	rows := make([]string, 0, g.Rows)
	for _, line := range strings.Split(g.String(), "\n") {
		line = strings.ReplaceAll(line, "█", "#")
		line = strings.ReplaceAll(line, "·", ".")
		rows = append(rows, line)
	}
	return rows
}

func TestBuildActivation_Dimensions(t *testing.T) {
	tests := []struct {
		name               string
		width, height      int
		tileSize           int
		wantRows, wantCols int
	}{
		{"exact multiple", 16, 8, 4, 2, 4},
		{"partial tiles", 17, 9, 4, 3, 5},
		{"single pixel", 1, 1, 4, 1, 1},
		{"tile size 1", 3, 2, 1, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := NewRaster(tt.width, tt.height)
			g, err := BuildActivation(img, tt.tileSize, DefaultThreshold)
			if err != nil {
				t.Fatalf("BuildActivation failed: %v", err)
			}
			if g.Rows != tt.wantRows || g.Cols != tt.wantCols {
				t.Errorf("grid: got %dx%d, want %dx%d", g.Rows, g.Cols, tt.wantRows, tt.wantCols)
			}
			if g.TileSize != tt.tileSize || g.Threshold != DefaultThreshold {
				t.Errorf("grid params: got (%d, %g)", g.TileSize, g.Threshold)
			}
			if g.ActiveCount() != 0 {
				t.Errorf("uniform image should have no active tiles, got %d", g.ActiveCount())
			}
		})
	}
}

func TestBuildActivation_Threshold(t *testing.T) {
	// Left tile: spread 30 (not active, strict comparison).
	// Right tile: spread 31 (active).
	img := NewRaster(8, 4)
	img.Set(0, 0, 30, 0, 0)
	img.Set(4, 0, 0, 31, 0)

	g, err := BuildActivation(img, 4, 30)
	if err != nil {
		t.Fatalf("BuildActivation failed: %v", err)
	}
	if g.Active(Pos{0, 0}) {
		t.Error("spread equal to threshold should not activate")
	}
	if !g.Active(Pos{0, 1}) {
		t.Error("spread above threshold should activate")
	}
}

func TestBuildActivation_AcrossChannels(t *testing.T) {
	// A single grey pixel whose channels differ from each other is enough:
	// the spread is taken over all sampled channel values.
	img := NewRaster(4, 4)
	img.Fill(0, 0, 4, 4, 100, 100, 100)
	img.Set(2, 2, 100, 100, 180)

	g, err := BuildActivation(img, 4, 30)
	if err != nil {
		t.Fatalf("BuildActivation failed: %v", err)
	}
	if !g.Active(Pos{0, 0}) {
		t.Error("channel spread of 80 should activate the tile")
	}
}

func TestBuildActivation_PartialTile(t *testing.T) {
	// 6x6 image with tile size 4: the last row/col of tiles only covers 2
	// pixels. A bright pixel at (5,5) must still activate tile (1,1).
	img := NewRaster(6, 6)
	img.Set(5, 5, 255, 255, 255)

	g, err := BuildActivation(img, 4, 30)
	if err != nil {
		t.Fatalf("BuildActivation failed: %v", err)
	}
	want := []string{
		"..",
		".#",
	}
	if d := cmp.Diff(want, patternOf(g)); d != "" {
		t.Errorf("activation mismatch (-want +got):\n%s", d)
	}
}

func TestBuildActivation_Errors(t *testing.T) {
	tests := []struct {
		name      string
		img       *Raster
		tileSize  int
		threshold float64
	}{
		{"zero tile size", NewRaster(4, 4), 0, 30},
		{"negative tile size", NewRaster(4, 4), -2, 30},
		{"negative threshold", NewRaster(4, 4), 4, -1},
		{"empty image", NewRaster(0, 0), 4, 30},
		{"nil image", nil, 4, 30},
		{"short buffer", &Raster{Width: 2, Height: 2, Pix: make([]float64, 3)}, 4, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildActivation(tt.img, tt.tileSize, tt.threshold); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFillGaps(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			"horizontal gap",
			[]string{"#.#"},
			[]string{"###"},
		},
		{
			"vertical gap",
			[]string{"#", ".", "#"},
			[]string{"#", "#", "#"},
		},
		{
			"diagonal gap",
			[]string{
				"#..",
				"...",
				"..#",
			},
			[]string{
				"#..",
				".#.",
				"..#",
			},
		},
		{
			"anti-diagonal gap",
			[]string{
				"..#",
				"...",
				"#..",
			},
			[]string{
				"..#",
				".#.",
				"#..",
			},
		},
		{
			"two tile gap is left alone",
			[]string{"#..#"},
			[]string{"#..#"},
		},
		{
			"border tiles have no opposite pair",
			[]string{".#."},
			[]string{".#."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := mustPattern(t, tt.in...)
			before := patternOf(in)

			out := FillGaps(in)
			if d := cmp.Diff(tt.want, patternOf(out)); d != "" {
				t.Errorf("FillGaps mismatch (-want +got):\n%s", d)
			}
			if d := cmp.Diff(before, patternOf(in)); d != "" {
				t.Errorf("input grid was modified (-before +after):\n%s", d)
			}
		})
	}
}

func TestFillGaps_NoCascadeWithinPass(t *testing.T) {
	// Filling (0,1) from its E-W pair would give (1,1) a N-S pair with (2,1),
	// but that second fill must not happen in the same pass.
	in := mustPattern(t,
		"#.#",
		"...",
		".#.",
	)
	want := []string{
		"###",
		"...",
		".#.",
	}
	if d := cmp.Diff(want, patternOf(FillGaps(in))); d != "" {
		t.Errorf("FillGaps mismatch (-want +got):\n%s", d)
	}
}

func TestFillGaps_Idempotent(t *testing.T) {
	patterns := [][]string{
		{"#.#.#"},
		{
			".....",
			".#.#.",
			".....",
			".#.#.",
			".....",
		},
		{
			"#.#..",
			".....",
			"#....",
		},
		{
			"#.##.#",
			"......",
			"#.##.#",
		},
	}

	for i, rows := range patterns {
		once := FillGaps(mustPattern(t, rows...))
		twice := FillGaps(once)
		if !once.Equal(twice) {
			t.Errorf("pattern %d: second pass changed the grid:\nonce:\n%s\ntwice:\n%s", i, once, twice)
		}
	}
}

func TestFillGaps_SecondPassCanExtend(t *testing.T) {
	// Filled inner corners of a hollow square complete new 1-0-1 triples
	// along the inner edge, so a second pass is not always a no-op.
	in := mustPattern(t,
		"#####",
		"#...#",
		"#...#",
		"#...#",
		"#####",
	)
	once := FillGaps(in)
	want := []string{
		"#####",
		"##.##",
		"#...#",
		"##.##",
		"#####",
	}
	if d := cmp.Diff(want, patternOf(once)); d != "" {
		t.Fatalf("first pass mismatch (-want +got):\n%s", d)
	}
	if FillGaps(once).Equal(once) {
		t.Error("second pass should fill (1,2) between the filled corners")
	}
}

func TestFillGaps_PreservesParams(t *testing.T) {
	in := NewGrid(3, 3, 8, 12.5)
	out := FillGaps(in)
	if out.TileSize != 8 || out.Threshold != 12.5 || out.Rows != 3 || out.Cols != 3 {
		t.Errorf("params not preserved: %+v", out)
	}
}

func TestGrid_Claim(t *testing.T) {
	g := mustPattern(t, "##")
	p := Pos{0, 0}

	if !g.Claim(p, Owner{Chain: 2, Index: 5}) {
		t.Fatal("first claim should succeed")
	}
	if g.Claim(p, Owner{Chain: 3, Index: 0}) {
		t.Error("second claim should fail")
	}
	o, ok := g.Tile(p).Owner()
	if !ok || o != (Owner{Chain: 2, Index: 5}) {
		t.Errorf("owner: got %+v (%v), want chain 2 index 5", o, ok)
	}
	if g.Claim(Pos{5, 5}, Owner{}) {
		t.Error("claim outside grid should fail")
	}

	g.ResetVisits()
	if g.Visited(p) {
		t.Error("ResetVisits should clear visited")
	}
	if _, ok := g.Tile(p).Owner(); ok {
		t.Error("ResetVisits should clear owner")
	}
}

func TestGrid_OnBorder(t *testing.T) {
	g := NewGrid(3, 4, 4, 0)
	tests := []struct {
		p    Pos
		want bool
	}{
		{Pos{0, 1}, true},
		{Pos{2, 2}, true},
		{Pos{1, 0}, true},
		{Pos{1, 3}, true},
		{Pos{1, 1}, false},
		{Pos{1, 2}, false},
	}
	for _, tt := range tests {
		if got := g.OnBorder(tt.p); got != tt.want {
			t.Errorf("OnBorder(%v): got %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestParsePattern_RaggedRows(t *testing.T) {
	if _, err := ParsePattern(4, "##", "#"); err == nil {
		t.Error("expected error for ragged rows")
	}
}
