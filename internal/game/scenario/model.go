// Package scenario loads hypothetical battles from YAML files and builds the battle state
// the exchange evaluator runs on.
package scenario

import (
	"fmt"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
	"github.com/cory-johannsen/hexbattle/internal/game/dice"
)

// Scenario is a battlefield snapshot with the unit about to act.
type Scenario struct {
	ID          string
	Description string
	// Active is the unit whose decision is being evaluated.
	Active    combat.UnitID
	Obstacles []combat.Hex
	Units     []UnitSpec
}

// UnitSpec declares one stack on the battlefield.
type UnitSpec struct {
	ID        combat.UnitID
	Name      string
	Side      combat.Side
	X, Y      int
	Count     int64
	MaxHealth int64
	// Wounds is damage already taken by the front creature.
	Wounds  int64
	Attack  int
	Defense int
	Damage  string
	Speed   int

	Shooter bool
	Shots   int

	DoubleWide            bool
	DoubleAttack          bool
	NoRetaliation         bool
	BlocksRetaliation     bool
	UnlimitedRetaliations bool
	CounterAttacks        int

	Moved   bool
	Waiting bool
	Waited  bool
}

// Validate checks scenario invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario ID must not be empty")
	}
	if len(s.Units) == 0 {
		return fmt.Errorf("scenario %q: must contain at least one unit", s.ID)
	}

	for _, h := range s.Obstacles {
		if !h.IsValid() {
			return fmt.Errorf("scenario %q: obstacle outside the battlefield", s.ID)
		}
	}

	occupied := make(map[combat.Hex]combat.UnitID)
	for _, h := range s.Obstacles {
		occupied[h] = -1
	}
	seen := make(map[combat.UnitID]bool, len(s.Units))
	activeFound := false

	for _, spec := range s.Units {
		if seen[spec.ID] {
			return fmt.Errorf("scenario %q: duplicate unit ID %d", s.ID, spec.ID)
		}
		seen[spec.ID] = true
		if spec.ID == s.Active {
			activeFound = true
		}

		if spec.Name == "" {
			return fmt.Errorf("scenario %q: unit %d: name must not be empty", s.ID, spec.ID)
		}
		if spec.Count <= 0 {
			return fmt.Errorf("scenario %q: unit %d: count must be > 0", s.ID, spec.ID)
		}
		if spec.MaxHealth <= 0 {
			return fmt.Errorf("scenario %q: unit %d: max_health must be > 0", s.ID, spec.ID)
		}
		if spec.Wounds < 0 || spec.Wounds >= spec.MaxHealth {
			return fmt.Errorf("scenario %q: unit %d: wounds must be in [0, max_health)", s.ID, spec.ID)
		}
		if spec.Speed < 0 || spec.Shots < 0 || spec.CounterAttacks < 0 {
			return fmt.Errorf("scenario %q: unit %d: speed, shots and counter_attacks must be >= 0", s.ID, spec.ID)
		}
		if _, err := dice.Parse(spec.Damage); err != nil {
			return fmt.Errorf("scenario %q: unit %d: damage: %w", s.ID, spec.ID, err)
		}

		u := spec.unit(dice.Expression{})
		for _, h := range u.Hexes() {
			if !h.IsValid() {
				return fmt.Errorf("scenario %q: unit %d: position (%d,%d) outside the battlefield", s.ID, spec.ID, spec.X, spec.Y)
			}
			if other, ok := occupied[h]; ok {
				if other < 0 {
					return fmt.Errorf("scenario %q: unit %d: stands on an obstacle at %s", s.ID, spec.ID, h)
				}
				return fmt.Errorf("scenario %q: unit %d overlaps unit %d at %s", s.ID, spec.ID, other, h)
			}
			occupied[h] = spec.ID
		}
		if spec.DoubleWide && !u.OccupiedHex(u.Position).IsValid() {
			return fmt.Errorf("scenario %q: unit %d: rear hex outside the battlefield", s.ID, spec.ID)
		}
	}

	if !activeFound {
		return fmt.Errorf("scenario %q: active unit %d not found", s.ID, s.Active)
	}
	return nil
}

// Build returns a root battle state holding every unit, with the active unit set and m
// installed as the damage modifier (nil for none).
//
// Precondition: Validate returns nil.
// Postcondition: Returns a State or a non-nil error.
func (s *Scenario) Build(m combat.DamageModifier) (*combat.State, error) {
	units := make([]*combat.Unit, 0, len(s.Units))
	for _, spec := range s.Units {
		expr, err := dice.Parse(spec.Damage)
		if err != nil {
			return nil, fmt.Errorf("scenario.Build: unit %d: %w", spec.ID, err)
		}
		units = append(units, spec.unit(expr))
	}

	state, err := combat.NewState(units, s.Obstacles)
	if err != nil {
		return nil, fmt.Errorf("scenario.Build: %w", err)
	}
	state.SetActive(s.Active)
	state.SetDamageModifier(m)
	return state, nil
}

func (spec UnitSpec) unit(damage dice.Expression) *combat.Unit {
	return &combat.Unit{
		ID:                    spec.ID,
		Name:                  spec.Name,
		Side:                  spec.Side,
		Position:              combat.NewHex(spec.X, spec.Y),
		MaxHealth:             spec.MaxHealth,
		Health:                spec.Count*spec.MaxHealth - spec.Wounds,
		Attack:                spec.Attack,
		Defense:               spec.Defense,
		DamageDice:            damage,
		Speed:                 spec.Speed,
		Shooter:               spec.Shooter,
		Shots:                 spec.Shots,
		DoubleWide:            spec.DoubleWide,
		DoubleAttack:          spec.DoubleAttack,
		NoRetaliation:         spec.NoRetaliation,
		BlocksRetaliation:     spec.BlocksRetaliation,
		UnlimitedRetaliations: spec.UnlimitedRetaliations,
		CounterAttacks:        spec.CounterAttacks,
		MovedThisRound:        spec.Moved,
		Waiting:               spec.Waiting,
		WaitedThisTurn:        spec.Waited,
	}
}
