// Package tracer walks an activation grid and records connected boundaries as
// directional chains, then filters out chains that look like noise.
//
// # Chains
//
// A chain is an ordered list of tile positions with one step between each
// consecutive pair. Every step records the absolute direction taken, the
// turn code relative to the previous direction and the Euclidean step
// distance. Tile count and step count are distinct quantities and are exposed
// through NumTiles and NumSteps; a chain with n tiles always has n−1 steps.
//
// # Termination
//
// A chain ends in one of three ways:
//
//   - Open end: no active neighbour is left to step into.
//   - Loop: the only remaining neighbours are already visited and one of them
//     is the chain's own first tile, owned by the chain at index 0. The first
//     tile is appended again, so Tiles[0] == Tiles[last].
//   - Splice: the only remaining neighbours are already visited and none is
//     a first tile the chain owns. The chain appends the neighbour it would
//     turn least to reach and stops. The spliced-into tile stays owned by its
//     original chain and nothing of that chain is copied. A branch that comes
//     back to its branch tile therefore splices into its parent.
//
// # Branches
//
// When a tile offers several unvisited neighbours the chain continues into the
// one requiring the smallest turn. Each other neighbour starts a branch: a
// new chain that begins at the branch tile and whose first step goes to that
// neighbour. The branch claims its first tile at the branch point, before the
// current chain moves on, and is then queued on an explicit work-list to be
// extended later.
//
// Two kinds of neighbour are deferred rather than claimed: a corner tile
// orthogonally adjacent to the tile the chain steps into, which the chain
// can still reach around the corner, and a neighbour of the chain's own
// seed, which the chain can still reach to close a loop. A deferred branch
// is claimed when it leaves the work-list, or dropped if some chain has
// reached its tile by then. A seed tile is not a branch point; its
// neighbours left unvisited when the seed chain closes start branches from
// the seed.
package tracer

import (
	"github.com/ironsheep/boundary-mcp/internal/chaincode"
	"github.com/ironsheep/boundary-mcp/internal/tilegrid"
)

// Step is one move between consecutive chain tiles.
type Step struct {
	// Turn is the rotation relative to the previous direction of travel.
	Turn chaincode.TurnCode `json:"turn"`

	// Direction is the absolute compass direction of the move.
	Direction chaincode.Direction `json:"direction"`

	// Distance is 1 for orthogonal moves and √2 for diagonal moves.
	Distance float64 `json:"distance"`
}

// Chain is a traced boundary segment.
type Chain struct {
	// ID is unique within one trace and equals the chain's index in the
	// returned slice.
	ID int `json:"id"`

	// Parent is the ID of the chain this one branched from, or -1 for chains
	// started from a fresh seed tile.
	Parent int `json:"parent"`

	// Tiles lists the visited positions in order. A loop repeats its first
	// tile at the end; a splice ends on a tile owned by another chain (or an
	// earlier tile of this chain).
	Tiles []tilegrid.Pos `json:"tiles"`

	// Steps holds exactly len(Tiles)-1 moves.
	Steps []Step `json:"steps"`

	Loop          bool `json:"is_loop"`
	Spliced       bool `json:"is_spliced"`
	TouchesBorder bool `json:"touches_border"`

	// SplicedInto is the owner of the final tile when Spliced is set.
	SplicedInto *tilegrid.Owner `json:"spliced_into,omitempty"`

	// Truncated is set when the chain was closed early by a tracing limit.
	Truncated bool `json:"truncated,omitempty"`
}

// NumTiles returns the number of tile positions in the chain, including a
// repeated first tile for loops and the terminal tile of a splice.
func (c *Chain) NumTiles() int {
	return len(c.Tiles)
}

// NumSteps returns the number of moves in the chain.
func (c *Chain) NumSteps() int {
	return len(c.Steps)
}

// Seed returns the first tile of the chain.
func (c *Chain) Seed() tilegrid.Pos {
	return c.Tiles[0]
}

// End returns the last tile of the chain.
func (c *Chain) End() tilegrid.Pos {
	return c.Tiles[len(c.Tiles)-1]
}

// Perimeter returns the sum of step distances.
func (c *Chain) Perimeter() float64 {
	var sum float64
	for _, s := range c.Steps {
		sum += s.Distance
	}
	return sum
}

// Owned returns the tiles this chain claimed during tracing. It excludes the
// branch tile a branch chain starts from and the terminal reference of a
// loop or splice, both of which belong to some chain's own claim.
func (c *Chain) Owned() []tilegrid.Pos {
	start, end := 0, len(c.Tiles)
	if c.Parent >= 0 {
		start = 1
	}
	if c.Loop || c.Spliced {
		end--
	}
	if end < start {
		return nil
	}
	return c.Tiles[start:end]
}

// Bounds returns the inclusive tile-space bounding box of the chain.
func (c *Chain) Bounds() (minRow, minCol, maxRow, maxCol int) {
	minRow, minCol = c.Tiles[0].Row, c.Tiles[0].Col
	maxRow, maxCol = minRow, minCol
	for _, p := range c.Tiles[1:] {
		if p.Row < minRow {
			minRow = p.Row
		}
		if p.Row > maxRow {
			maxRow = p.Row
		}
		if p.Col < minCol {
			minCol = p.Col
		}
		if p.Col > maxCol {
			maxCol = p.Col
		}
	}
	return minRow, minCol, maxRow, maxCol
}
