// Package features reduces traced chains to fixed-size feature vectors.
//
// A v_object is a 13-element vector:
//
//	[0:8]   normalised turn-code histogram (sums to 1, or all zero for a chain
//	        without steps)
//	[8]     total right turn
//	[9]     total left turn
//	[10:13] mean R, G, B of the scanline-filled region, in source range
//
// The first ten elements describe shape and the last three describe colour;
// object memories weight the two groups separately.
package features

import "github.com/ironsheep/boundary-mcp/internal/chaincode"

// Vector layout.
const (
	NumBins   = chaincode.NumTurnCodes
	ShapeSize = NumBins + 2
	Size      = ShapeSize + 3

	indexRight = NumBins
	indexLeft  = NumBins + 1
	indexRed   = ShapeSize
	indexGreen = ShapeSize + 1
	indexBlue  = ShapeSize + 2
)

// VObject is the 13-element shape and colour descriptor of one chain.
type VObject [Size]float64

// Histogram returns the eight normalised turn-code bins.
func (v VObject) Histogram() [NumBins]float64 {
	var h [NumBins]float64
	copy(h[:], v[:NumBins])
	return h
}

// RightTurn returns the total right-turn weight.
func (v VObject) RightTurn() float64 { return v[indexRight] }

// LeftTurn returns the total left-turn weight.
func (v VObject) LeftTurn() float64 { return v[indexLeft] }

// Color returns the mean colour.
func (v VObject) Color() (r, g, b float64) {
	return v[indexRed], v[indexGreen], v[indexBlue]
}

// Shape returns the histogram and turn totals.
func (v VObject) Shape() []float64 {
	return v[:ShapeSize:ShapeSize]
}

// ColorPart returns the colour elements.
func (v VObject) ColorPart() []float64 {
	return v[ShapeSize:Size:Size]
}

// Point is a position in tile coordinates (X = column, Y = row).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Object is the reduced form of one chain.
type Object struct {
	ChainID  int     `json:"chain_id"`
	Vector   VObject `json:"v_object"`
	Centroid Point   `json:"centroid"`
	Scale    float64 `json:"scale"`
}
