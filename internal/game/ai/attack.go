// Package ai scores candidate attacks for the battle AI. Each candidate is replayed on a
// hypothetical battle together with the follow-up blows every nearby unit could deliver in
// the next rounds, and the resulting exchange is reduced to one comparable score.
package ai

import (
	"fmt"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// IneffectiveScore marks an exchange whose simulated benefit cannot be realized.
const IneffectiveScore int64 = -1_000_000

// AttackPossibility is one candidate attack with its outcome already projected.
//
// Invariant: Attacker and Defender are the pre-attack projections; AttackerState and
// AffectedUnits are post-attack projections of the same battle. Read-only once built.
type AttackPossibility struct {
	Attacker *combat.Unit
	Defender *combat.Unit
	// AttackerState is the attacker after the attack and any retaliation.
	AttackerState *combat.Unit
	// AffectedUnits holds every unit the attack damaged, after the attack.
	AffectedUnits []*combat.Unit

	// From is the hex the attacker strikes from; its own position for shots.
	From combat.Hex
	// Dest is the hex targeted.
	Dest     combat.Hex
	Shooting bool

	DamageDealt           int64
	DamageReceived        int64
	CollateralDamage      int64
	ShootersBlockedDamage int64
}

// AttackValue returns the precomputed net value of the attack.
//
// Postcondition: DamageDealt - DamageReceived - CollateralDamage + ShootersBlockedDamage.
func (ap *AttackPossibility) AttackValue() int64 {
	return ap.DamageDealt - ap.DamageReceived - ap.CollateralDamage + ap.ShootersBlockedDamage
}

// String describes the attack for logs.
func (ap *AttackPossibility) String() string {
	kind := "melee"
	if ap.Shooting {
		kind = "shot"
	}
	return fmt.Sprintf("%s -> %s %s from %s, value %d", ap.Attacker, ap.Defender, kind, ap.From, ap.AttackValue())
}

// EvaluationResult is the outcome of FindBestTarget.
type EvaluationResult struct {
	// BestAttack is the winning candidate, or nil when there were none.
	BestAttack *AttackPossibility
	Score      int64
	// Wait recommends delaying the action until later in the round.
	Wait bool
}

// newEvaluationResult seeds a result with the default action and its unsimulated value.
func newEvaluationResult(best *AttackPossibility) EvaluationResult {
	if best == nil {
		return EvaluationResult{Score: IneffectiveScore}
	}
	return EvaluationResult{BestAttack: best, Score: best.AttackValue()}
}
