package tilegrid

import "github.com/ironsheep/boundary-mcp/internal/chaincode"

// fillAxes are the four opposite-neighbour pairs checked by FillGaps, given as
// one direction per axis: N–S, NE–SW, E–W, SE–NW.
var fillAxes = [4]chaincode.Direction{chaincode.N, chaincode.NE, chaincode.E, chaincode.SE}

// FillGaps repairs single-tile gaps in an activation grid.
//
// An inactive tile becomes active when, along at least one of the four axes
// (N–S, E–W, NE–SW, NW–SE), both opposite neighbours are active: the 1–0–1
// pattern. Wider gaps such as 1–0–0–1 are never filled.
//
// The result is a new grid with the same dimensions and fresh tracing state;
// the input is not modified. Every decision reads only the input grid, so a
// tile filled in this pass can never enable another fill in the same pass.
func FillGaps(g *Grid) *Grid {
	out := g.CloneActivation()

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			p := Pos{Row: r, Col: c}
			if g.Active(p) {
				continue
			}
			for _, d := range fillAxes {
				if g.Active(p.Step(d)) && g.Active(p.Step(d.Opposite())) {
					out.SetActive(p, true)
					break
				}
			}
		}
	}

	return out
}
