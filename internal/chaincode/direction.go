// Package chaincode maps between the 8 compass directions of the tile grid and
// the relative turn codes recorded on every step of a boundary chain.
//
// # Grid Convention
//
// Directions are expressed in grid coordinates: rows grow downward and columns
// grow rightward, so N is (-1, 0) and E is (0, +1). The enumeration order
// N, NE, E, SE, S, SW, W, NW is the fixed compass order used wherever the
// tracer needs a deterministic tie-break.
//
// # Turn Codes
//
// A TurnCode encodes the rotation between two consecutive absolute directions:
//
//	code  rotation
//	0     straight (0°)
//	1     +45°  (slight right)
//	2     -45°  (slight left)
//	3     +90°  (right)
//	4     -90°  (left)
//	5     +135° (sharp right)
//	6     -135° (sharp left)
//	7     180°  (U-turn)
//
// Odd codes below 7 turn right, even codes above 0 turn left.
package chaincode

import (
	"fmt"
	"math"
)

// Direction is one of the 8 compass directions on the tile grid.
type Direction int

// Compass directions in enumeration order.
const (
	N Direction = iota
	NE
	E
	SE
	S
	SW
	W
	NW
)

// NumDirections is the number of compass directions.
const NumDirections = 8

// Compass lists every direction in the fixed enumeration order.
var Compass = [NumDirections]Direction{N, NE, E, SE, S, SW, W, NW}

var deltas = [NumDirections][2]int{
	{-1, 0},  // N
	{-1, 1},  // NE
	{0, 1},   // E
	{1, 1},   // SE
	{1, 0},   // S
	{1, -1},  // SW
	{0, -1},  // W
	{-1, -1}, // NW
}

var names = [NumDirections]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Valid reports whether d is one of the 8 compass directions.
func (d Direction) Valid() bool {
	return d >= N && d <= NW
}

// Delta returns the (row, col) offset of a single step in direction d.
func (d Direction) Delta() (dRow, dCol int) {
	v := deltas[d]
	return v[0], v[1]
}

// Diagonal reports whether d moves along both axes.
func (d Direction) Diagonal() bool {
	return d%2 == 1
}

// Distance returns the Euclidean length of one step: 1 for orthogonal
// directions and √2 for diagonals.
func (d Direction) Distance() float64 {
	if d.Diagonal() {
		return math.Sqrt2
	}
	return 1.0
}

// Opposite returns the direction rotated by 180°.
func (d Direction) Opposite() Direction {
	return (d + 4) % NumDirections
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return names[d]
}

// DirectionOf returns the direction whose step offset is (dRow, dCol).
// The offset must describe one of the 8 neighbours.
func DirectionOf(dRow, dCol int) (Direction, error) {
	for i, v := range deltas {
		if v[0] == dRow && v[1] == dCol {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("offset (%d,%d) is not an 8-connected step", dRow, dCol)
}

// TurnCode is the relative rotation between two consecutive directions.
type TurnCode int

// Turn codes by rotation.
const (
	Straight    TurnCode = 0
	SlightRight TurnCode = 1
	SlightLeft  TurnCode = 2
	Right       TurnCode = 3
	Left        TurnCode = 4
	SharpRight  TurnCode = 5
	SharpLeft   TurnCode = 6
	UTurn       TurnCode = 7
)

// NumTurnCodes is the number of distinct turn codes.
const NumTurnCodes = 8

// turnByDiff maps (next - prev) mod 8 to the turn code.
var turnByDiff = [NumDirections]TurnCode{
	Straight,    // 0
	SlightRight, // 1: +45°
	Right,       // 2: +90°
	SharpRight,  // 3: +135°
	UTurn,       // 4: 180°
	SharpLeft,   // 5: -135°
	Left,        // 6: -90°
	SlightLeft,  // 7: -45°
}

var turnDegrees = [NumTurnCodes]int{0, 45, -45, 90, -90, 135, -135, 180}

// Turn returns the turn code for moving in direction next after moving in
// direction prev.
func Turn(prev, next Direction) TurnCode {
	diff := ((int(next)-int(prev))%NumDirections + NumDirections) % NumDirections
	return turnByDiff[diff]
}

// Degrees returns the signed rotation of the turn; right turns are positive.
// A U-turn reports +180.
func (t TurnCode) Degrees() int {
	return turnDegrees[t]
}

// Magnitude returns the absolute rotation of the turn in degrees.
func (t TurnCode) Magnitude() int {
	d := turnDegrees[t]
	if d < 0 {
		return -d
	}
	return d
}

// IsRight reports whether t turns clockwise by less than 180°.
func (t TurnCode) IsRight() bool {
	return t == SlightRight || t == Right || t == SharpRight
}

// IsLeft reports whether t turns counter-clockwise by less than 180°.
func (t TurnCode) IsLeft() bool {
	return t == SlightLeft || t == Left || t == SharpLeft
}

// Apply returns the absolute direction reached by turning t from prev.
// It is the inverse of Turn: Turn(prev, t.Apply(prev)) == t.
func (t TurnCode) Apply(prev Direction) Direction {
	for diff, code := range turnByDiff {
		if code == t {
			return Direction((int(prev) + diff) % NumDirections)
		}
	}
	return prev
}
