package combat

// DamageRange is an inclusive (min, max) damage estimate.
type DamageRange struct {
	Min int64
	Max int64
}

// Mid returns the midpoint of the range, rounded down.
func (r DamageRange) Mid() int64 { return (r.Min + r.Max) / 2 }

// IsZero reports whether the range deals no damage at all.
func (r DamageRange) IsZero() bool { return r.Max == 0 }

const (
	attackBonusPerPoint  = 0.05
	maxAttackBonus       = 3.0
	defenseBonusPerPoint = 0.025
	maxDefenseReduction  = 0.7
)

// EstimateDamage returns the damage range of attacker striking defender, and the range of
// the defender's retaliation against the attacker.
//
// The retaliation estimate assumes the defender has already absorbed the attack: the
// attacker's max damage yields the retaliation min and vice versa. It is zero when
// shooting, when the attacker blocks retaliation, when the defender cannot retaliate, or
// when the defender would not survive.
//
// Precondition: attacker and defender are units of s.
// Postcondition: 0 <= Min <= Max for both ranges.
func (s *State) EstimateDamage(attacker, defender *Unit, shooting bool) (attack, retaliation DamageRange) {
	attack = s.baseDamage(attacker, attacker.Count(), defender, shooting)

	if shooting || attacker.BlocksRetaliation || !defender.AbleToRetaliate() {
		return attack, DamageRange{}
	}

	afterMax := defender.Clone()
	afterMax.Damage(attack.Max)
	afterMin := defender.Clone()
	afterMin.Damage(attack.Min)
	if !afterMin.Alive() {
		return attack, DamageRange{}
	}

	retaliation.Max = s.baseDamage(afterMin, afterMin.Count(), attacker, false).Max
	if afterMax.Alive() {
		retaliation.Min = s.baseDamage(afterMax, afterMax.Count(), attacker, false).Min
	}
	return attack, retaliation
}

// baseDamage applies the stack size, attack/defense difference, melee penalty for
// shooters, and the installed DamageModifier.
func (s *State) baseDamage(attacker *Unit, count int64, defender *Unit, shooting bool) DamageRange {
	if count <= 0 {
		return DamageRange{}
	}
	lo, hi := attacker.DamageDice.Range()

	factor := 1.0
	if diff := attacker.Attack - defender.Defense; diff > 0 {
		factor += min(float64(diff)*attackBonusPerPoint, maxAttackBonus)
	} else if diff < 0 {
		factor -= min(float64(-diff)*defenseBonusPerPoint, maxDefenseReduction)
	}
	if attacker.Shooter && !shooting {
		factor *= 0.5
	}

	r := DamageRange{
		Min: max(1, int64(float64(lo*count)*factor)),
		Max: max(1, int64(float64(hi*count)*factor)),
	}
	if s.field.modifier != nil {
		r = s.field.modifier.ModifyDamage(attacker, defender, shooting, r)
	}
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max < r.Min {
		r.Max = r.Min
	}
	return r
}
