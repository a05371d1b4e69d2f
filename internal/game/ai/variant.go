package ai

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// BattleRules estimates damage for the exchange simulation. *combat.State satisfies it.
type BattleRules interface {
	// EstimateDamage returns the (min,max) damage of attacker striking defender and of the
	// defender's retaliation.
	EstimateDamage(attacker, defender *combat.Unit, shooting bool) (attack, retaliation combat.DamageRange)
}

// attackerValue is one unit's line in the exchange ledger.
type attackerValue struct {
	value      int64
	retaliated bool
}

// Variant accumulates the score of one simulated exchange.
//
// Invariant: a Variant is used for exactly one exchange; its ledger starts empty.
type Variant struct {
	dpsScore      int64
	attackerValue map[combat.UnitID]*attackerValue
	logger        *zap.Logger
}

// NewVariant returns an empty exchange accumulator.
//
// Precondition: logger must not be nil.
func NewVariant(logger *zap.Logger) *Variant {
	if logger == nil {
		panic("ai.NewVariant: logger must not be nil")
	}
	return &Variant{
		attackerValue: make(map[combat.UnitID]*attackerValue),
		logger:        logger,
	}
}

// Score returns the running net score of the exchange.
func (v *Variant) Score() int64 { return v.dpsScore }

func (v *Variant) entry(id combat.UnitID) *attackerValue {
	e, ok := v.attackerValue[id]
	if !ok {
		e = &attackerValue{}
		v.attackerValue[id] = e
	}
	return e
}

func (v *Variant) ledger(id combat.UnitID) attackerValue {
	if e, ok := v.attackerValue[id]; ok {
		return *e
	}
	return attackerValue{}
}

// TrackAttackPossibility replays a precomputed candidate on state: the post-attack health,
// shots, counter-attacks, and moved flag of the attacker and every affected unit are copied
// into state, and the candidate's attack value is added to the score.
//
// Precondition: ap was produced for the battle that state is forked from.
// Postcondition: returns ap.AttackValue().
func (v *Variant) TrackAttackPossibility(ap *AttackPossibility, state *combat.State) int64 {
	affected := append(append([]*combat.Unit(nil), ap.AffectedUnits...), ap.AttackerState)

	for _, u := range affected {
		if u == nil {
			continue
		}
		target := state.GetForUpdate(u.ID)
		if target == nil {
			continue
		}
		target.Health = u.Health
		target.Shots = u.Shots
		target.CounterAttacks = u.CounterAttacks
		target.MovedThisRound = u.MovedThisRound
	}

	value := ap.AttackValue()
	v.dpsScore += value

	v.logger.Debug("ap attack",
		zap.Stringer("attacker", ap.Attacker),
		zap.Stringer("defender", ap.Defender),
		zap.Bool("shooting", ap.Shooting),
		zap.Int64("damage", ap.DamageDealt),
		zap.Int64("score", value),
	)
	return value
}

// EvaluateAttack returns the net value TrackAttack would record for the same attack,
// without touching the units or the ledger.
func (v *Variant) EvaluateAttack(attacker, defender *combat.Unit, shooting bool, rules BattleRules) int64 {
	o := v.projectAttack(attacker, defender, shooting, rules)
	return o.net()
}

// TrackAttack simulates one attack and its retaliation: damage is applied to both units,
// the spent shot or counter-attack is consumed, and the score and ledger are updated from
// the perspective of our side.
//
// Postcondition: returns the same value EvaluateAttack would have returned beforehand.
func (v *Variant) TrackAttack(attacker, defender *combat.Unit, shooting, isOurAttack bool, rules BattleRules) int64 {
	o := v.projectAttack(attacker, defender, shooting, rules)
	v.commit(o, attacker, defender, shooting, isOurAttack)
	return o.net()
}

// attackOutcome is the projected effect of one attack, computed before anything changes.
type attackOutcome struct {
	attackDamage      int64
	defenderDpsReduce int64
	retaliates        bool
	retaliationDamage int64
	attackerDpsReduce int64
}

func (o attackOutcome) net() int64 { return o.defenderDpsReduce - o.attackerDpsReduce }

func (v *Variant) projectAttack(attacker, defender *combat.Unit, shooting bool, rules BattleRules) attackOutcome {
	attack, retaliation := rules.EstimateDamage(attacker, defender, shooting)

	var o attackOutcome
	o.attackDamage = attack.Mid()
	o.defenderDpsReduce = v.CalculateDpsReduce(attacker, defender, o.attackDamage, rules)

	survives := defender.AvailableHealth() > o.attackDamage
	o.retaliates = survives &&
		defender.AbleToRetaliate() &&
		!attacker.BlocksRetaliation &&
		!shooting &&
		!retaliation.IsZero()

	if o.retaliates {
		o.retaliationDamage = retaliation.Mid()
		o.attackerDpsReduce = v.CalculateDpsReduce(defender, attacker, o.retaliationDamage, rules)
	}

	if o.net() == 0 {
		v.logger.Debug("zero score attack",
			zap.Int64("defender_dps_reduce", o.defenderDpsReduce),
			zap.Int64("attacker_dps_reduce", o.attackerDpsReduce),
		)
	}
	return o
}

func (v *Variant) commit(o attackOutcome, attacker, defender *combat.Unit, shooting, isOurAttack bool) {
	v.logger.Debug("normal attack",
		zap.Stringer("attacker", attacker),
		zap.Stringer("defender", defender),
		zap.Bool("shooting", shooting),
		zap.Int64("damage", o.attackDamage),
		zap.Int64("dps_reduce", o.defenderDpsReduce),
	)

	if isOurAttack {
		v.dpsScore += o.defenderDpsReduce
		v.entry(attacker.ID).value += o.defenderDpsReduce
	} else {
		v.dpsScore -= o.defenderDpsReduce
	}

	defender.Damage(o.attackDamage)
	attacker.AfterAttack(shooting, false)

	if !o.retaliates {
		return
	}

	v.logger.Debug("retaliation",
		zap.Stringer("attacker", defender),
		zap.Stringer("defender", attacker),
		zap.Int64("damage", o.retaliationDamage),
		zap.Int64("dps_reduce", o.attackerDpsReduce),
	)

	if isOurAttack {
		v.dpsScore -= o.attackerDpsReduce
		v.entry(attacker.ID).retaliated = true
	} else {
		v.dpsScore += o.attackerDpsReduce
		v.entry(defender.ID).value += o.attackerDpsReduce
	}

	attacker.Damage(o.retaliationDamage)
	defender.AfterAttack(false, true)
}

// CalculateDpsReduce values damageDealt to defender as the share of the defender's own
// damage output it removes: the output per creature times the creatures killed, plus the
// fraction of the next creature's health taken.
//
// Postcondition: returns 0 when damageDealt <= 0; non-decreasing in damageDealt.
func (v *Variant) CalculateDpsReduce(attacker, defender *combat.Unit, damageDealt int64, rules BattleRules) int64 {
	if damageDealt <= 0 || !defender.Alive() {
		return 0
	}
	damageDealt = min(damageDealt, defender.AvailableHealth())

	enemyDamage, _ := rules.EstimateDamage(defender, attacker, defender.CanShoot())
	enemyDps := enemyDamage.Mid()

	maxHealth := defender.MaxHealth
	firstHPLeft := defender.FirstHPLeft()
	count := float64(defender.Count())

	enemiesKilled := damageDealt / maxHealth
	if damageDealt%maxHealth >= firstHPLeft {
		enemiesKilled++
	}

	// Health already taken from the creature that survives the hit.
	progress := damageDealt
	if damageDealt >= firstHPLeft {
		progress = (damageDealt - firstHPLeft) % maxHealth
	}

	return int64(float64(enemyDps*enemiesKilled)/count +
		float64(enemyDps)/count*float64(progress)/float64(maxHealth))
}

// AdjustPositions checks that the melee attackers credited in the ledger can actually
// reach the defender. Attackers are ranked (not retaliated before retaliated, then by
// ledger value) and each, except the candidate's own attacker, claims the free hex around
// the defender contended by the fewest units. The ledger value of attackers left without a
// hex is not realized; when it exceeds both the candidate's attack value and the candidate
// attacker's ledger value the score becomes IneffectiveScore.
func (v *Variant) AdjustPositions(attackers []*combat.Unit, ap *AttackPossibility, reachability ReachabilityMap) {
	hexes := ap.Defender.SurroundingHexes()

	ranked := append([]*combat.Unit(nil), attackers...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := v.ledger(ranked[i].ID), v.ledger(ranked[j].ID)
		if a.retaliated != b.retaliated {
			return !a.retaliated
		}
		return a.value > b.value
	})

	if !ap.Shooting {
		hexes = removeHex(hexes, ap.From)
		hexes = removeHex(hexes, ap.Attacker.OccupiedHex(ap.From))
	}

	var notRealized int64

	for _, u := range ranked {
		if u.ID == ap.Attacker.ID {
			continue
		}

		reachable := false
		for _, h := range hexes {
			if reachability.Reaches(h, u.ID) {
				reachable = true
				break
			}
		}
		if !reachable {
			notRealized += v.ledger(u.ID).value
			continue
		}

		best, bestScore := combat.InvalidHex, 0
		for _, h := range hexes {
			score := 1000
			if reachability.Reaches(h, u.ID) {
				score = len(reachability[h])
			}
			if u.DoubleWide {
				if back := u.OccupiedHex(h); containsHex(hexes, back) {
					score += len(reachability[back])
				}
			}
			if best == combat.InvalidHex || score < bestScore {
				best, bestScore = h, score
			}
		}
		hexes = removeHex(hexes, best)
	}

	if notRealized > ap.AttackValue() && notRealized > v.ledger(ap.Attacker.ID).value {
		v.logger.Debug("exchange not realizable",
			zap.Stringer("attack", ap),
			zap.Int64("not_realized", notRealized),
		)
		v.dpsScore = IneffectiveScore
	}
}

func removeHex(hexes []combat.Hex, h combat.Hex) []combat.Hex {
	for i, x := range hexes {
		if x == h {
			return append(hexes[:i:i], hexes[i+1:]...)
		}
	}
	return hexes
}

func containsHex(hexes []combat.Hex, h combat.Hex) bool {
	for _, x := range hexes {
		if x == h {
			return true
		}
	}
	return false
}
