package combat

import "fmt"

// Battlefield dimensions.
const (
	FieldWidth  = 17
	FieldHeight = 11
	HexCount    = FieldWidth * FieldHeight
)

// Hex is a battlefield cell index: y*FieldWidth + x. Odd rows are shifted half a hex right.
type Hex int

// InvalidHex marks an absent position.
const InvalidHex Hex = -1

// Direction enumerates the six hex neighbours, clockwise from top-left.
type Direction int

const (
	TopLeft Direction = iota
	TopRight
	Right
	BottomRight
	BottomLeft
	Left
)

var allDirections = [...]Direction{TopLeft, TopRight, Right, BottomRight, BottomLeft, Left}

// NewHex returns the hex at column x, row y, or InvalidHex when outside the field.
func NewHex(x, y int) Hex {
	if x < 0 || x >= FieldWidth || y < 0 || y >= FieldHeight {
		return InvalidHex
	}
	return Hex(y*FieldWidth + x)
}

// IsValid reports whether h lies on the battlefield.
func (h Hex) IsValid() bool { return h >= 0 && h < HexCount }

// X returns the column of h.
func (h Hex) X() int { return int(h) % FieldWidth }

// Y returns the row of h.
func (h Hex) Y() int { return int(h) / FieldWidth }

// Move returns the neighbour of h in dir, or InvalidHex when it would leave the field.
//
// Precondition: h.IsValid().
func (h Hex) Move(dir Direction) Hex {
	x, y := h.X(), h.Y()
	odd := y%2 == 1
	switch dir {
	case TopLeft:
		if odd {
			return NewHex(x-1, y-1)
		}
		return NewHex(x, y-1)
	case TopRight:
		if odd {
			return NewHex(x, y-1)
		}
		return NewHex(x+1, y-1)
	case Right:
		return NewHex(x+1, y)
	case BottomRight:
		if odd {
			return NewHex(x, y+1)
		}
		return NewHex(x+1, y+1)
	case BottomLeft:
		if odd {
			return NewHex(x-1, y+1)
		}
		return NewHex(x, y+1)
	case Left:
		return NewHex(x-1, y)
	}
	return InvalidHex
}

// Neighbours returns every valid hex adjacent to h in direction order.
//
// Postcondition: 2 <= len(result) <= 6 for a valid h.
func (h Hex) Neighbours() []Hex {
	if !h.IsValid() {
		return nil
	}
	out := make([]Hex, 0, len(allDirections))
	for _, d := range allDirections {
		if n := h.Move(d); n.IsValid() {
			out = append(out, n)
		}
	}
	return out
}

// IsAdjacent reports whether h and other share an edge.
func (h Hex) IsAdjacent(other Hex) bool {
	for _, n := range h.Neighbours() {
		if n == other {
			return true
		}
	}
	return false
}

// String renders h as "(x,y)".
func (h Hex) String() string {
	if !h.IsValid() {
		return "(invalid)"
	}
	return fmt.Sprintf("(%d,%d)", h.X(), h.Y())
}

func containsHex(hexes []Hex, h Hex) bool {
	for _, x := range hexes {
		if x == h {
			return true
		}
	}
	return false
}
