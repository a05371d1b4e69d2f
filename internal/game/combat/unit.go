// Package combat implements the hypothetical hex battle the exchange evaluator simulates on:
// unit projections, a copy-on-write battle state, reachability, turn order, and damage estimates.
package combat

import (
	"fmt"

	"github.com/cory-johannsen/hexbattle/internal/game/dice"
)

// Side identifies which army a unit belongs to.
type Side int

const (
	SideAttacker Side = iota
	SideDefender
)

// String returns a human-readable side label.
func (s Side) String() string {
	switch s {
	case SideAttacker:
		return "attacker"
	case SideDefender:
		return "defender"
	default:
		return "unknown"
	}
}

// UnitID identifies a unit across every fork of a battle.
type UnitID int

// Unit is a stack of identical creatures as projected into one battle state.
//
// Invariant: Health >= 0; a unit with Health == 0 is dead and cannot attack or retaliate.
// Invariant: MaxHealth > 0.
type Unit struct {
	ID       UnitID
	Name     string
	Side     Side
	Position Hex

	// MaxHealth is the health of a single creature.
	MaxHealth int64
	// Health is the remaining health of the whole stack.
	Health int64

	Attack  int
	Defense int
	// DamageDice is the per-creature damage roll.
	DamageDice dice.Expression
	Speed      int

	Shooter bool
	Shots   int

	DoubleWide   bool
	DoubleAttack bool

	// NoRetaliation units never strike back.
	NoRetaliation bool
	// BlocksRetaliation units cannot be retaliated against.
	BlocksRetaliation     bool
	UnlimitedRetaliations bool
	CounterAttacks        int

	MovedThisRound bool
	Waiting        bool
	WaitedThisTurn bool
}

// Alive reports whether the stack still has creatures.
func (u *Unit) Alive() bool { return u.Health > 0 }

// Count returns the number of living creatures in the stack.
//
// Postcondition: Count() == ceil(Health / MaxHealth).
func (u *Unit) Count() int64 {
	if u.Health <= 0 {
		return 0
	}
	return (u.Health + u.MaxHealth - 1) / u.MaxHealth
}

// FirstHPLeft returns the remaining health of the front creature.
//
// Postcondition: 0 < FirstHPLeft() <= MaxHealth for a living unit; 0 otherwise.
func (u *Unit) FirstHPLeft() int64 {
	if u.Health <= 0 {
		return 0
	}
	return u.Health - (u.Count()-1)*u.MaxHealth
}

// AvailableHealth returns the total damage the stack can absorb before dying.
func (u *Unit) AvailableHealth() int64 {
	if u.Health < 0 {
		return 0
	}
	return u.Health
}

// AbleToRetaliate reports whether the unit can strike back right now.
func (u *Unit) AbleToRetaliate() bool {
	if !u.Alive() || u.NoRetaliation {
		return false
	}
	return u.UnlimitedRetaliations || u.CounterAttacks > 0
}

// CanShoot reports whether the unit has a ranged attack available, ignoring adjacency.
// State.CanShoot additionally checks for adjacent enemies.
func (u *Unit) CanShoot() bool {
	return u.Alive() && u.Shooter && u.Shots > 0
}

// TotalAttacks returns the number of strikes the unit makes in one turn.
//
// Postcondition: returns 1 or 2.
func (u *Unit) TotalAttacks(shooting bool) int {
	if u.DoubleAttack {
		return 2
	}
	return 1
}

// SpeedAt returns the movement allowance in the given lookahead turn.
func (u *Unit) SpeedAt(turn int) int {
	return u.Speed
}

// OccupiedHex returns the rear hex a double-wide unit fills when its head stands on pos,
// or InvalidHex for single-hex units.
func (u *Unit) OccupiedHex(pos Hex) Hex {
	if !u.DoubleWide || !pos.IsValid() {
		return InvalidHex
	}
	if u.Side == SideAttacker {
		return pos.Move(Left)
	}
	return pos.Move(Right)
}

// Hexes returns every hex the unit occupies at its current position.
func (u *Unit) Hexes() []Hex {
	return u.hexesAt(u.Position)
}

func (u *Unit) hexesAt(pos Hex) []Hex {
	out := []Hex{pos}
	if back := u.OccupiedHex(pos); back.IsValid() {
		out = append(out, back)
	}
	return out
}

// SurroundingHexes returns every valid hex adjacent to the unit, excluding its own hexes.
//
// Postcondition: result contains no duplicates, in neighbour order of the head then the rear.
func (u *Unit) SurroundingHexes() []Hex {
	own := u.Hexes()
	var out []Hex
	for _, h := range own {
		for _, n := range h.Neighbours() {
			if containsHex(own, n) || containsHex(out, n) {
				continue
			}
			out = append(out, n)
		}
	}
	return out
}

// Damage reduces the stack's health by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: Health >= 0.
func (u *Unit) Damage(amount int64) {
	u.Health -= amount
	if u.Health < 0 {
		u.Health = 0
	}
}

// AfterAttack consumes the resource the strike used: a counter-attack for retaliations,
// a shot for ranged attacks.
func (u *Unit) AfterAttack(shooting, counter bool) {
	switch {
	case counter:
		if !u.UnlimitedRetaliations && u.CounterAttacks > 0 {
			u.CounterAttacks--
		}
	case shooting:
		if u.Shots > 0 {
			u.Shots--
		}
	}
}

// SetPosition moves the unit's head to pos.
func (u *Unit) SetPosition(pos Hex) { u.Position = pos }

// Clone returns an independent copy of u.
func (u *Unit) Clone() *Unit {
	c := *u
	return &c
}

// String returns a short description used in logs, e.g. "10 Swordsmen#3".
func (u *Unit) String() string {
	return fmt.Sprintf("%d %s#%d", u.Count(), u.Name, u.ID)
}

// MatchOwner reports whether a and b are on the same side when positive is true,
// or on opposing sides when positive is false.
func MatchOwner(a, b *Unit, positive bool) bool {
	return (a.Side == b.Side) == positive
}
