package movement

import (
	"fmt"
	"math"
	"strings"
)

// Direction is one of the eight compass directions. The numeric value is the
// direction index used for animation rows: E, W, N, S first so 4-way and
// 2-way movement can take the index modulo 4 or 2.
type Direction int

const (
	E Direction = iota
	W
	N
	S
	NE
	SE
	NW
	SW
)

// diagonal components are not normalized to 1/sqrt(2).
var dirVec = [...]struct {
	name   string
	dx, dy float64
}{
	E:  {"E", 1, 0},
	W:  {"W", -1, 0},
	N:  {"N", 0, 1},
	S:  {"S", 0, -1},
	NE: {"NE", .7, .7},
	SE: {"SE", .7, -.7},
	NW: {"NW", -.7, .7},
	SW: {"SW", -.7, -.7},
}

func (d Direction) DX() float64 { return dirVec[d].dx }
func (d Direction) DY() float64 { return dirVec[d].dy }

// Scale returns the displacement for moving distance units towards d.
func (d Direction) Scale(distance float64) (dx, dy float64) {
	return dirVec[d].dx * distance, dirVec[d].dy * distance
}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(dirVec) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return dirVec[d].name
}

// Index maps d to an animation row for an animation with maxDirections rows.
func (d Direction) Index(maxDirections int) int {
	switch {
	case maxDirections >= 8:
		return int(d)
	case maxDirections >= 4:
		return int(d) % 4
	case maxDirections >= 2:
		return int(d) % 2
	}
	return 0
}

// FromMovement picks the direction closest to the displacement (x, y).
func FromMovement(x, y float64) Direction {
	if x == 0 {
		if y < 0 {
			return S
		}
		return N
	}
	if y == 0 {
		if x < 0 {
			return W
		}
		return E
	}
	ratio := x/y - 1
	if math.Abs(ratio) > .5 {
		if ratio < 0 {
			if y < 0 {
				return S
			}
			return N
		}
		if x < 0 {
			return W
		}
		return E
	}
	if x < 0 {
		if y < 0 {
			return SW
		}
		return NW
	}
	if y < 0 {
		return SE
	}
	return NE
}

// FromMovementLimited restricts FromMovement to 4- or 2-way movement.
func FromMovementLimited(x, y float64, maxDirections int) Direction {
	switch {
	case maxDirections >= 8:
		return FromMovement(x, y)
	case maxDirections >= 4:
		if math.Abs(y) > math.Abs(x) {
			if y < 0 {
				return S
			}
			return N
		}
		if x < 0 {
			return W
		}
		return E
	case maxDirections >= 2:
		if x < 0 {
			return W
		}
	}
	return E
}

// ParseDirection accepts a direction name (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, v := range dirVec {
		if v.name == name {
			return Direction(i), nil
		}
	}
	return E, fmt.Errorf("unknown direction %q", s)
}
