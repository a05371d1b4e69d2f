package combat

import (
	"fmt"
	"sort"
)

// DamageModifier adjusts an estimated damage range. Implementations must be deterministic.
type DamageModifier interface {
	ModifyDamage(attacker, defender *Unit, shooting bool, r DamageRange) DamageRange
}

// field holds what every fork of one battle shares.
type field struct {
	order     []UnitID
	obstacles map[Hex]bool
	active    UnitID
	hasActive bool
	modifier  DamageModifier
}

// State is a hypothetical battle. A root State owns the initial unit projections; a fork
// reads through to its parent and clones units locally on GetForUpdate, so mutations never
// reach the parent.
//
// State is not safe for concurrent use.
type State struct {
	parent *State
	field  *field
	units  map[UnitID]*Unit
}

// NewState builds a root battle state from units and obstacle hexes.
//
// Precondition: unit IDs are unique; every unit position and obstacle is a valid hex.
// Postcondition: Returns a State owning clones of units, or an error describing the first violation.
func NewState(units []*Unit, obstacles []Hex) (*State, error) {
	s := &State{
		field: &field{obstacles: make(map[Hex]bool, len(obstacles))},
		units: make(map[UnitID]*Unit, len(units)),
	}
	for _, h := range obstacles {
		if !h.IsValid() {
			return nil, fmt.Errorf("combat.NewState: obstacle %d outside the battlefield", h)
		}
		s.field.obstacles[h] = true
	}
	for _, u := range units {
		if u == nil {
			return nil, fmt.Errorf("combat.NewState: nil unit")
		}
		if _, dup := s.units[u.ID]; dup {
			return nil, fmt.Errorf("combat.NewState: duplicate unit ID %d", u.ID)
		}
		if u.MaxHealth <= 0 {
			return nil, fmt.Errorf("combat.NewState: unit %d max health must be > 0", u.ID)
		}
		for _, h := range u.Hexes() {
			if !h.IsValid() {
				return nil, fmt.Errorf("combat.NewState: unit %d occupies a hex outside the battlefield", u.ID)
			}
		}
		s.units[u.ID] = u.Clone()
		s.field.order = append(s.field.order, u.ID)
	}
	sort.Slice(s.field.order, func(i, j int) bool { return s.field.order[i] < s.field.order[j] })
	return s, nil
}

// Fork returns a child state whose mutations are invisible to s.
//
// Postcondition: s is unchanged by any operation on the returned State.
func (s *State) Fork() *State {
	return &State{parent: s, field: s.field, units: make(map[UnitID]*Unit)}
}

// SetActive records the unit whose turn it is; it leads turn 0 of TurnOrder unless waiting.
// Shared by every fork of the battle.
func (s *State) SetActive(id UnitID) {
	s.field.active = id
	s.field.hasActive = true
}

// Active returns the active unit ID, if one was set.
func (s *State) Active() (UnitID, bool) {
	return s.field.active, s.field.hasActive
}

// SetDamageModifier installs m for every fork of the battle; nil removes it.
func (s *State) SetDamageModifier(m DamageModifier) {
	s.field.modifier = m
}

// Unit returns the projection of id visible in s, or nil if unknown. The result must be
// treated as read-only; use GetForUpdate to mutate.
func (s *State) Unit(id UnitID) *Unit {
	for st := s; st != nil; st = st.parent {
		if u, ok := st.units[id]; ok {
			return u
		}
	}
	return nil
}

// GetForUpdate returns a projection of id owned by s, cloning it from an ancestor on first use.
//
// Postcondition: returns nil iff id is unknown; mutations of the result affect only s and its forks.
func (s *State) GetForUpdate(id UnitID) *Unit {
	if u, ok := s.units[id]; ok {
		return u
	}
	if s.parent == nil {
		return nil
	}
	base := s.parent.Unit(id)
	if base == nil {
		return nil
	}
	u := base.Clone()
	s.units[id] = u
	return u
}

// Units returns every unit projection in ascending ID order, dead ones included.
func (s *State) Units() []*Unit {
	out := make([]*Unit, 0, len(s.field.order))
	for _, id := range s.field.order {
		out = append(out, s.Unit(id))
	}
	return out
}

// UnitAt returns the living unit occupying h, or nil.
func (s *State) UnitAt(h Hex) *Unit {
	for _, u := range s.Units() {
		if u.Alive() && containsHex(u.Hexes(), h) {
			return u
		}
	}
	return nil
}

// IsObstacle reports whether h is blocked terrain.
func (s *State) IsObstacle(h Hex) bool {
	return s.field.obstacles[h]
}

// CanShoot reports whether u can make a ranged attack: it has shots and no living enemy
// stands next to it.
func (s *State) CanShoot(u *Unit) bool {
	if !u.CanShoot() {
		return false
	}
	for _, h := range u.SurroundingHexes() {
		if other := s.UnitAt(h); other != nil && !MatchOwner(u, other, true) {
			return false
		}
	}
	return true
}
