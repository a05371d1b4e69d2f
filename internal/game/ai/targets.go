package ai

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// PotentialTargets holds every attack the active unit can make this turn.
type PotentialTargets struct {
	PossibleAttacks []AttackPossibility
}

// BestAction returns the candidate with the highest AttackValue, or nil when there are none.
// Ties go to the earlier candidate.
func (pt *PotentialTargets) BestAction() *AttackPossibility {
	var best *AttackPossibility
	for i := range pt.PossibleAttacks {
		ap := &pt.PossibleAttacks[i]
		if best == nil || ap.AttackValue() > best.AttackValue() {
			best = ap
		}
	}
	return best
}

// NewPotentialTargets enumerates the attacks available to attacker in state: one shot per
// living enemy when the attacker can shoot, otherwise one melee strike per living enemy and
// free hex around it within the attacker's speed. Each candidate is projected on a fork of
// state with midpoint damage.
//
// Precondition: attacker is a living unit of state; logger must not be nil.
// Postcondition: state is not modified.
func NewPotentialTargets(attacker *combat.Unit, state *combat.State, logger *zap.Logger) *PotentialTargets {
	if logger == nil {
		panic("ai.NewPotentialTargets: logger must not be nil")
	}
	pt := &PotentialTargets{}
	if !attacker.Alive() {
		return pt
	}

	shooting := state.CanShoot(attacker)
	var r combat.Reachability
	if !shooting {
		r = state.Reachability(attacker)
	}
	v := NewVariant(logger)

	for _, enemy := range state.Units() {
		if !enemy.Alive() || combat.MatchOwner(attacker, enemy, true) {
			continue
		}

		if shooting {
			pt.PossibleAttacks = append(pt.PossibleAttacks,
				projectCandidate(v, state, attacker, enemy, attacker.Position, enemy.Position, true))
			continue
		}

		for _, from := range enemy.SurroundingHexes() {
			if r.Distance(from) > attacker.Speed {
				continue
			}
			pt.PossibleAttacks = append(pt.PossibleAttacks,
				projectCandidate(v, state, attacker, enemy, from, adjacentHex(enemy, from), false))
		}
	}

	logger.Debug("potential targets",
		zap.Stringer("attacker", attacker),
		zap.Bool("shooting", shooting),
		zap.Int("candidates", len(pt.PossibleAttacks)),
	)
	return pt
}

// projectCandidate plays one candidate on a fork: the attacker moves to from, strikes
// TotalAttacks times with midpoint damage, and takes midpoint retaliation after each strike.
// Values are expressed as damage-output reductions, the same currency the exchange uses.
func projectCandidate(v *Variant, state *combat.State, attacker, defender *combat.Unit, from, dest combat.Hex, shooting bool) AttackPossibility {
	fork := state.Fork()
	att := fork.GetForUpdate(attacker.ID)
	def := fork.GetForUpdate(defender.ID)

	ap := AttackPossibility{
		Attacker: attacker,
		Defender: defender,
		From:     from,
		Dest:     dest,
		Shooting: shooting,
	}

	if !shooting {
		ap.ShootersBlockedDamage = blockedShooterValue(v, state, attacker, from)
		att.SetPosition(from)
	}

	for i := 0; i < att.TotalAttacks(shooting); i++ {
		if !att.Alive() || !def.Alive() {
			break
		}
		attack, retaliation := fork.EstimateDamage(att, def, shooting)

		dealt := min(attack.Mid(), def.Health)
		ap.DamageDealt += v.CalculateDpsReduce(att, def, dealt, fork)
		def.Damage(dealt)
		att.AfterAttack(shooting, false)

		if shooting || att.BlocksRetaliation || retaliation.IsZero() || !def.AbleToRetaliate() {
			continue
		}
		received := min(retaliation.Mid(), att.Health)
		ap.DamageReceived += v.CalculateDpsReduce(def, att, received, fork)
		att.Damage(received)
		def.AfterAttack(false, true)
	}

	att.MovedThisRound = true
	ap.AttackerState = att
	ap.AffectedUnits = []*combat.Unit{def}
	return ap
}

// blockedShooterValue is the damage-output reduction enemy shooters next to from would have
// inflicted on attacker; standing next to them stops them shooting.
func blockedShooterValue(v *Variant, state *combat.State, attacker *combat.Unit, from combat.Hex) int64 {
	var total int64
	for _, n := range from.Neighbours() {
		enemy := state.UnitAt(n)
		if enemy == nil || enemy.ID == attacker.ID || combat.MatchOwner(attacker, enemy, true) {
			continue
		}
		if !state.CanShoot(enemy) || enemy.Position != n {
			continue
		}
		shot, _ := state.EstimateDamage(enemy, attacker, true)
		total += v.CalculateDpsReduce(enemy, attacker, shot.Mid(), state)
	}
	return total
}

// adjacentHex returns the hex of defender next to from.
func adjacentHex(defender *combat.Unit, from combat.Hex) combat.Hex {
	for _, h := range defender.Hexes() {
		if h.IsAdjacent(from) {
			return h
		}
	}
	return defender.Position
}
