package combat

import "sort"

// TurnOrder returns the IDs of units acting in each of the next maxTurns rounds, at most
// maxActions IDs in total.
//
// Round 0 starts with the active unit (unless it is waiting), followed by units that have
// not moved and are not waiting by descending speed, then waiting units by ascending speed.
// Later rounds list every living unit by descending speed. Ties go to the attacker side,
// then the lower ID.
//
// Precondition: maxActions >= 0; maxTurns >= 0.
// Postcondition: no empty round is returned; dead units never appear.
func (s *State) TurnOrder(maxActions, maxTurns int) [][]UnitID {
	var out [][]UnitID
	remaining := maxActions

	emit := func(units []*Unit) {
		if remaining <= 0 || len(units) == 0 {
			return
		}
		if len(units) > remaining {
			units = units[:remaining]
		}
		ids := make([]UnitID, len(units))
		for i, u := range units {
			ids[i] = u.ID
		}
		remaining -= len(ids)
		out = append(out, ids)
	}

	living := make([]*Unit, 0, len(s.field.order))
	for _, u := range s.Units() {
		if u.Alive() {
			living = append(living, u)
		}
	}

	for turn := 0; turn < maxTurns && remaining > 0; turn++ {
		if turn > 0 {
			all := append([]*Unit(nil), living...)
			sortBySpeed(all, turn, true)
			emit(all)
			continue
		}

		var first, normal, waiting []*Unit
		activeID, hasActive := s.Active()
		for _, u := range living {
			switch {
			case u.MovedThisRound:
			case u.Waiting:
				waiting = append(waiting, u)
			case hasActive && u.ID == activeID:
				first = append(first, u)
			default:
				normal = append(normal, u)
			}
		}
		sortBySpeed(normal, turn, true)
		sortBySpeed(waiting, turn, false)
		round := append(append(first, normal...), waiting...)
		emit(round)
	}
	return out
}

func sortBySpeed(units []*Unit, turn int, descending bool) {
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if sa, sb := a.SpeedAt(turn), b.SpeedAt(turn); sa != sb {
			if descending {
				return sa > sb
			}
			return sa < sb
		}
		if a.Side != b.Side {
			return a.Side == SideAttacker
		}
		return a.ID < b.ID
	})
}
