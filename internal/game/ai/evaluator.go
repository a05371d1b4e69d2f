package ai

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexbattle/internal/config"
	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// Evaluator scores candidate attacks by simulating the exchange each one starts among every
// unit able to join it during the lookahead window.
//
// Invariant: battle is never mutated; every simulation runs on a private fork.
// An Evaluator is not safe for concurrent use.
type Evaluator struct {
	battle *combat.State
	cfg    config.EvaluatorConfig
	logger *zap.Logger

	turnOrder       [][]combat.UnitID
	reachabilityMap ReachabilityMap
}

// NewEvaluator constructs an Evaluator over battle.
//
// Precondition: battle and logger must not be nil.
func NewEvaluator(battle *combat.State, cfg config.EvaluatorConfig, logger *zap.Logger) *Evaluator {
	if battle == nil {
		panic("ai.NewEvaluator: battle must not be nil")
	}
	if logger == nil {
		panic("ai.NewEvaluator: logger must not be nil")
	}
	return &Evaluator{
		battle:          battle,
		cfg:             cfg,
		logger:          logger,
		reachabilityMap: make(ReachabilityMap),
	}
}

// TurnOrder returns the lookahead computed by the last UpdateReachabilityMap.
func (e *Evaluator) TurnOrder() [][]combat.UnitID { return e.turnOrder }

// ReachabilityMap returns the map computed by the last UpdateReachabilityMap.
func (e *Evaluator) ReachabilityMap() ReachabilityMap { return e.reachabilityMap }

// FindBestTarget scores every candidate and returns the best one. Unless active has already
// waited this turn, the candidates are scored again with active marked as waiting; a strictly
// better score there recommends waiting.
//
// Precondition: active, targets, and hb must not be nil. hb is a hypothetical fork of the
// evaluator's battle; it receives active's waiting flags.
// Postcondition: Score >= the default action's AttackValue() when targets is non-empty.
func (e *Evaluator) FindBestTarget(active *combat.Unit, targets *PotentialTargets, hb *combat.State) EvaluationResult {
	if active == nil {
		panic("ai.Evaluator.FindBestTarget: active must not be nil")
	}
	if targets == nil {
		panic("ai.Evaluator.FindBestTarget: targets must not be nil")
	}
	if hb == nil {
		panic("ai.Evaluator.FindBestTarget: hb must not be nil")
	}

	result := newEvaluationResult(targets.BestAction())

	e.UpdateReachabilityMap(hb)
	e.scoreTargets(targets, &result, false)

	if !active.WaitedThisTurn {
		e.logger.Debug("evaluating waited attack", zap.Stringer("unit", active))

		waiting := hb.GetForUpdate(active.ID)
		waiting.Waiting = true
		waiting.WaitedThisTurn = true

		e.UpdateReachabilityMap(hb)
		e.scoreTargets(targets, &result, true)
	}

	return result
}

func (e *Evaluator) scoreTargets(targets *PotentialTargets, result *EvaluationResult, wait bool) {
	for i := range targets.PossibleAttacks {
		ap := &targets.PossibleAttacks[i]
		if score := e.CalculateExchange(ap); score > result.Score {
			result.Score = score
			result.BestAttack = ap
			result.Wait = wait
		}
	}
}

// GetExchangeUnits returns the units that can join the exchange started by ap: every unit
// reaching the defender's hexes, or the attacker's origin hex for melee, listed in turn
// order (once per lookahead turn in which it acts).
//
// Postcondition: empty iff fewer than two distinct units reach those hexes.
func (e *Evaluator) GetExchangeUnits(ap *AttackPossibility) []combat.UnitID {
	hexes := ap.Defender.Hexes()
	if !ap.Shooting {
		hexes = append(hexes, ap.From)
	}

	var reachable []combat.UnitID
	for _, h := range hexes {
		for _, id := range e.reachabilityMap[h] {
			reachable = appendUnique(reachable, id)
		}
	}

	if len(reachable) < 2 {
		e.logger.Debug("reachability map holds too few stacks", zap.Int("stacks", len(reachable)))
		return nil
	}

	var exchangeUnits []combat.UnitID
	for _, queue := range e.turnOrder {
		for _, id := range queue {
			if containsUnit(reachable, id) {
				exchangeUnits = append(exchangeUnits, id)
			}
		}
	}
	return exchangeUnits
}

// CalculateExchange simulates the exchange started by ap on a private fork of the battle and
// returns its score: each participating unit, in turn order, strikes its best target with
// all its attacks for the turn, our units pressing the candidate's defender while it lives.
// The candidate's own attack is replayed from its projection when its attacker acts first.
//
// Postcondition: returns 0 when fewer than two units can take part; the battle is unchanged.
func (e *Evaluator) CalculateExchange(ap *AttackPossibility) int64 {
	at := ap.From
	if ap.Shooting {
		at = ap.Dest
	}
	e.logger.Debug("battle exchange", zap.Stringer("hex", at), zap.Stringer("attack", ap))

	exchangeUnits := e.GetExchangeUnits(ap)
	if len(exchangeUnits) == 0 {
		return 0
	}

	exchangeBattle := e.battle.Fork()
	v := NewVariant(e.logger)

	ourStacks := []combat.UnitID{}
	enemyStacks := []combat.UnitID{ap.Defender.ID}

	for _, id := range exchangeUnits {
		if combat.MatchOwner(ap.Attacker, exchangeBattle.Unit(id), true) {
			ourStacks = appendUnique(ourStacks, id)
		} else {
			enemyStacks = appendUnique(enemyStacks, id)
		}
	}

	var meleeAttackers []*combat.Unit
	for _, id := range ourStacks {
		if u := e.battle.Unit(id); !e.battle.CanShoot(u) {
			meleeAttackers = append(meleeAttackers, u)
		}
	}

	canUseAp := true

	for _, id := range exchangeUnits {
		isOur := combat.MatchOwner(ap.Attacker, exchangeBattle.Unit(id), true)
		attackerQueue, oppositeQueue := &ourStacks, &enemyStacks
		if !isOur {
			attackerQueue, oppositeQueue = oppositeQueue, attackerQueue
		}

		attacker := exchangeBattle.GetForUpdate(id)

		if !attacker.Alive() || len(*oppositeQueue) == 0 {
			e.logger.Debug("attacker dead or no opponents left",
				zap.Stringer("attacker", attacker),
				zap.Bool("dead", !attacker.Alive()),
				zap.Int("opponents", len(*oppositeQueue)),
			)
			continue
		}

		targetID := ap.Defender.ID
		if !isOur || !exchangeBattle.Unit(targetID).Alive() {
			targetID = e.selectTarget(v, exchangeBattle, attacker, *oppositeQueue)
		}

		defender := exchangeBattle.GetForUpdate(targetID)
		shooting := exchangeBattle.CanShoot(attacker)

		if canUseAp && id == ap.Attacker.ID && targetID == ap.Defender.ID {
			v.TrackAttackPossibility(ap, exchangeBattle)
		} else {
			totalAttacks := attacker.TotalAttacks(shooting)
			for i := 0; i < totalAttacks; i++ {
				v.TrackAttack(attacker, defender, shooting, isOur, exchangeBattle)

				if !attacker.Alive() || !defender.Alive() {
					break
				}
			}
		}

		canUseAp = false

		*attackerQueue = pruneDead(exchangeBattle, *attackerQueue)
		*oppositeQueue = pruneDead(exchangeBattle, *oppositeQueue)
	}

	v.AdjustPositions(meleeAttackers, ap, e.reachabilityMap)

	e.logger.Debug("exchange score", zap.Int64("score", v.Score()))
	return v.Score()
}

// selectTarget returns the opponent in queue that attacker would hurt most, by speculative
// evaluation. Ties go to the earlier opponent.
//
// Precondition: queue is non-empty.
func (e *Evaluator) selectTarget(v *Variant, state *combat.State, attacker *combat.Unit, queue []combat.UnitID) combat.UnitID {
	shooting := state.CanShoot(attacker)
	best, bestScore := queue[0], int64(math.MinInt64)

	for _, id := range queue {
		target := state.Unit(id)
		score := v.EvaluateAttack(attacker, target, shooting, state)

		e.logger.Debug("best target selector",
			zap.Stringer("attacker", attacker),
			zap.Stringer("target", target),
			zap.Int64("score", score),
		)

		if score > bestScore {
			best, bestScore = id, score
		}
	}
	return best
}

func pruneDead(state *combat.State, queue []combat.UnitID) []combat.UnitID {
	out := queue[:0]
	for _, id := range queue {
		if state.Unit(id).Alive() {
			out = append(out, id)
		}
	}
	return out
}

func appendUnique(ids []combat.UnitID, id combat.UnitID) []combat.UnitID {
	if containsUnit(ids, id) {
		return ids
	}
	return append(ids, id)
}

func containsUnit(ids []combat.UnitID, id combat.UnitID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
