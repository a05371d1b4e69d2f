package ai

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// ReachabilityMap records, per hex, the units able to attack that hex within the lookahead.
// A unit appears once per lookahead turn in which it reaches the hex.
type ReachabilityMap map[combat.Hex][]combat.UnitID

// Reaches reports whether id is recorded for h.
func (m ReachabilityMap) Reaches(h combat.Hex, id combat.UnitID) bool {
	for _, u := range m[h] {
		if u == id {
			return true
		}
	}
	return false
}

// UpdateReachabilityMap rebuilds the turn order lookahead from hb and records, for every
// acting unit in every lookahead turn, each hex it can reach within its speed. A hex held by
// a living enemy counts as reached when a hex next to it is.
//
// Postcondition: TurnOrder() and ReachabilityMap() reflect hb.
func (e *Evaluator) UpdateReachabilityMap(hb *combat.State) {
	e.turnOrder = hb.TurnOrder(e.cfg.MaxTurnActions, e.cfg.TurnLookahead)
	e.reachabilityMap = make(ReachabilityMap)

	for turn, queue := range e.turnOrder {
		turnBattle := hb.Fork()

		for _, id := range queue {
			unit := turnBattle.Unit(id)
			r := turnBattle.Reachability(unit)

			for h := combat.Hex(0); h < combat.HexCount; h++ {
				if reachable, _ := canReach(turnBattle, unit, &r, h, turn); reachable {
					e.reachabilityMap[h] = append(e.reachabilityMap[h], id)
				}
			}
		}
	}
}

// canReach reports whether unit can strike h in the given turn: h is within its speed, or
// h holds a living enemy and a neighbour of h is within its speed. enemyHex is true when the
// second rule was consulted.
func canReach(state *combat.State, unit *combat.Unit, r *combat.Reachability, h combat.Hex, turn int) (reachable, enemyHex bool) {
	speed := unit.SpeedAt(turn)
	if r.Distance(h) <= speed {
		return true, false
	}
	if r.Accessibility[h] != combat.AliveStack {
		return false, false
	}
	occupant := state.UnitAt(h)
	if occupant == nil || combat.MatchOwner(unit, occupant, true) {
		return false, false
	}
	for _, n := range h.Neighbours() {
		if r.Distance(n) <= speed {
			return true, true
		}
	}
	return false, true
}

// CheckPositionBlocksOurStacks reports whether moving active to position would cut our
// other stacks off from hexes they reach today. Each lost hex costs EnemyBlockPenalty when it
// holds an enemy and FreeBlockPenalty otherwise; the position blocks when the total exceeds
// BlockingThreshold.
//
// Only units on active's side are checked; active itself and every enemy are skipped.
// Enemies losing hexes to active is not a cost.
//
// Precondition: UpdateReachabilityMap has been called for the current decision.
// Postcondition: hb is not modified.
func (e *Evaluator) CheckPositionBlocksOurStacks(hb *combat.State, active *combat.Unit, position combat.Hex) bool {
	blockingScore := 0

	for turn, queue := range e.turnOrder {
		turnBattle := hb.Fork()
		turnBattle.GetForUpdate(active.ID).SetPosition(position)

		for _, id := range queue {
			unit := turnBattle.Unit(id)
			if id == active.ID || !combat.MatchOwner(unit, active, true) {
				continue
			}

			r := turnBattle.Reachability(unit)

			for h := combat.Hex(0); h < combat.HexCount; h++ {
				reachable, enemyHex := canReach(turnBattle, unit, &r, h, turn)
				if reachable || !e.reachabilityMap.Reaches(h, id) {
					continue
				}
				if enemyHex {
					blockingScore += e.cfg.EnemyBlockPenalty
				} else {
					blockingScore += e.cfg.FreeBlockPenalty
				}
			}
		}
	}

	e.logger.Debug("position blocking score",
		zap.Stringer("position", position),
		zap.Int("score", blockingScore),
	)
	return blockingScore > e.cfg.BlockingThreshold
}
