// Package tilegrid reduces an image to a grid of tile activations and repairs
// single-tile gaps in that grid.
//
// # Tiles
//
// A tile covers a TileSize×TileSize block of pixels. Tile (row, col) covers
// pixel rows [row*TileSize, (row+1)*TileSize) and pixel columns
// [col*TileSize, (col+1)*TileSize), clipped to the image for the last row and
// column. A tile is active when the pixel values inside it vary by more than
// the grid threshold.
//
// # Ownership
//
// Besides activation, every tile carries a visited flag and an optional owner
// reference (chain id and index within that chain). These fields belong to the
// boundary tracer: they are set through Claim, exactly once per tile, and are
// never cleared except by ResetVisits.
package tilegrid

import (
	"fmt"
	"strings"

	"github.com/ironsheep/boundary-mcp/internal/chaincode"
)

// Pos addresses a tile by row and column.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the neighbouring position one step away in direction d.
// The result may lie outside the grid.
func (p Pos) Step(d chaincode.Direction) Pos {
	dr, dc := d.Delta()
	return Pos{Row: p.Row + dr, Col: p.Col + dc}
}

// DirectionTo returns the compass direction from p to an 8-connected
// neighbour q.
func (p Pos) DirectionTo(q Pos) (chaincode.Direction, error) {
	return chaincode.DirectionOf(q.Row-p.Row, q.Col-p.Col)
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Owner identifies the chain that first visited a tile and the index of the
// tile within that chain.
type Owner struct {
	Chain int `json:"chain"`
	Index int `json:"index"`
}

// Tile is a single cell of the grid.
type Tile struct {
	Active  bool
	Visited bool

	owner Owner
	owned bool
}

// Owner returns the owning chain reference, if the tile has been claimed.
func (t Tile) Owner() (Owner, bool) {
	return t.owner, t.owned
}

// Grid is a rectangular arena of tiles indexed by (row, col).
type Grid struct {
	Rows      int
	Cols      int
	TileSize  int
	Threshold float64

	tiles []Tile
}

// NewGrid creates a grid with every tile inactive and unvisited.
func NewGrid(rows, cols, tileSize int, threshold float64) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{
		Rows:      rows,
		Cols:      cols,
		TileSize:  tileSize,
		Threshold: threshold,
		tiles:     make([]Tile, rows*cols),
	}
}

// In reports whether p lies inside the grid.
func (g *Grid) In(p Pos) bool {
	return p.Row >= 0 && p.Row < g.Rows && p.Col >= 0 && p.Col < g.Cols
}

// Tile returns a copy of the tile at p. Positions outside the grid return an
// inactive, unvisited tile.
func (g *Grid) Tile(p Pos) Tile {
	if !g.In(p) {
		return Tile{}
	}
	return g.tiles[p.Row*g.Cols+p.Col]
}

// Active reports whether the tile at p exists and is active.
func (g *Grid) Active(p Pos) bool {
	return g.In(p) && g.tiles[p.Row*g.Cols+p.Col].Active
}

// Visited reports whether the tile at p exists and has been claimed.
func (g *Grid) Visited(p Pos) bool {
	return g.In(p) && g.tiles[p.Row*g.Cols+p.Col].Visited
}

// SetActive sets the activation of the tile at p. Positions outside the grid
// are ignored.
func (g *Grid) SetActive(p Pos, active bool) {
	if g.In(p) {
		g.tiles[p.Row*g.Cols+p.Col].Active = active
	}
}

// Claim marks the tile at p visited and owned by o, but only if the tile is
// inside the grid and has not been claimed before. It reports whether the
// claim succeeded. This is the only way ownership is ever assigned.
func (g *Grid) Claim(p Pos, o Owner) bool {
	if !g.In(p) {
		return false
	}
	t := &g.tiles[p.Row*g.Cols+p.Col]
	if t.Visited {
		return false
	}
	t.Visited = true
	t.owner = o
	t.owned = true
	return true
}

// ResetVisits clears the visited flag and owner of every tile so the grid can
// be traced again.
func (g *Grid) ResetVisits() {
	for i := range g.tiles {
		g.tiles[i].Visited = false
		g.tiles[i].owned = false
		g.tiles[i].owner = Owner{}
	}
}

// OnBorder reports whether p lies on the outer edge of the grid.
func (g *Grid) OnBorder(p Pos) bool {
	return p.Row == 0 || p.Row == g.Rows-1 || p.Col == 0 || p.Col == g.Cols-1
}

// ActiveCount returns the number of active tiles.
func (g *Grid) ActiveCount() int {
	n := 0
	for _, t := range g.tiles {
		if t.Active {
			n++
		}
	}
	return n
}

// CloneActivation returns a new grid with the same dimensions and activations
// and fresh (unvisited) tracing state.
func (g *Grid) CloneActivation() *Grid {
	c := NewGrid(g.Rows, g.Cols, g.TileSize, g.Threshold)
	for i, t := range g.tiles {
		c.tiles[i].Active = t.Active
	}
	return c
}

// Equal reports whether two grids have the same dimensions and activations.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.Rows != other.Rows || g.Cols != other.Cols {
		return false
	}
	for i := range g.tiles {
		if g.tiles[i].Active != other.tiles[i].Active {
			return false
		}
	}
	return true
}

// ActivationRows returns the activation map as one bool slice per row.
func (g *Grid) ActivationRows() [][]bool {
	rows := make([][]bool, g.Rows)
	for r := 0; r < g.Rows; r++ {
		rows[r] = make([]bool, g.Cols)
		for c := 0; c < g.Cols; c++ {
			rows[r][c] = g.tiles[r*g.Cols+c].Active
		}
	}
	return rows
}

// String renders the activation map with one line per row, '█' for active
// tiles and '·' for inactive ones.
func (g *Grid) String() string {
	var b strings.Builder
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if g.tiles[r*g.Cols+c].Active {
				b.WriteRune('█')
			} else {
				b.WriteRune('·')
			}
		}
		if r < g.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// ParsePattern builds a grid from text rows where '#', '1' or '█' mark active
// tiles and any other rune marks an inactive tile. All rows must have the same
// number of runes.
func ParsePattern(tileSize int, rows ...string) (*Grid, error) {
	if len(rows) == 0 {
		return NewGrid(0, 0, tileSize, 0), nil
	}
	cols := len([]rune(rows[0]))
	g := NewGrid(len(rows), cols, tileSize, 0)
	for r, line := range rows {
		runes := []rune(line)
		if len(runes) != cols {
			return nil, fmt.Errorf("pattern row %d has %d tiles, want %d", r, len(runes), cols)
		}
		for c, ch := range runes {
			if ch == '#' || ch == '1' || ch == '█' {
				g.SetActive(Pos{Row: r, Col: c}, true)
			}
		}
	}
	return g, nil
}
