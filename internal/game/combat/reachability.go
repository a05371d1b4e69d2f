package combat

// Accessibility classifies a hex for movement.
type Accessibility int

const (
	Accessible Accessibility = iota
	Obstacle
	AliveStack
)

// Unreachable is the distance recorded for hexes a unit cannot move to.
const Unreachable = 1 << 20

// Reachability holds movement distances from one unit's position.
type Reachability struct {
	// Distances[h] is the number of steps the unit's head needs to reach h, or Unreachable.
	Distances [HexCount]int
	// Accessibility[h] is the hex's accessibility as seen by the unit.
	Accessibility [HexCount]Accessibility
}

// Distance returns the distance to h, treating invalid hexes as unreachable.
func (r *Reachability) Distance(h Hex) int {
	if !h.IsValid() {
		return Unreachable
	}
	return r.Distances[h]
}

// Reachability computes breadth-first movement distances for u over the hexes of s.
// Obstacles and other living units block movement; a double-wide unit also needs its
// rear hex free at every step.
//
// Precondition: u is a unit of s.
// Postcondition: Distances of u's own position is 0; blocked hexes are Unreachable.
func (s *State) Reachability(u *Unit) Reachability {
	var r Reachability
	own := u.Hexes()

	for h := Hex(0); h < HexCount; h++ {
		r.Distances[h] = Unreachable
		switch {
		case containsHex(own, h):
			r.Accessibility[h] = Accessible
		case s.IsObstacle(h):
			r.Accessibility[h] = Obstacle
		case s.UnitAt(h) != nil:
			r.Accessibility[h] = AliveStack
		default:
			r.Accessibility[h] = Accessible
		}
	}

	canStand := func(h Hex) bool {
		if r.Accessibility[h] != Accessible {
			return false
		}
		if !u.DoubleWide {
			return true
		}
		back := u.OccupiedHex(h)
		return back.IsValid() && r.Accessibility[back] == Accessible
	}

	if !u.Position.IsValid() {
		return r
	}
	r.Distances[u.Position] = 0
	queue := []Hex{u.Position}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbours() {
			if r.Distances[n] != Unreachable || !canStand(n) {
				continue
			}
			r.Distances[n] = r.Distances[cur] + 1
			queue = append(queue, n)
		}
	}
	return r
}
