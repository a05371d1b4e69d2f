// Package dice parses the dice expressions used to declare per-creature unit damage
// and reduces them to deterministic damage ranges.
package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression represents a parsed dice expression.
//
// Invariant: Count >= 1, Sides >= 1 after successful Parse.
// Invariant: 0 <= KeepHighest < Count.
type Expression struct {
	Raw         string // original input string
	Count       int    // number of dice
	Sides       int    // faces per die; "d1" models fixed damage
	Modifier    int    // flat modifier (may be negative)
	KeepHighest int    // if > 0, keep only the N highest dice (e.g. 4d6kh3)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2", "4d6kh3", "4d6kh3+1".
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if strings.TrimSpace(expr) == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	s := strings.ToLower(strings.TrimSpace(expr))

	countStr, rest, found := strings.Cut(s, "d")
	if !found {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", expr)
	}

	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
		}
		if n <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", expr)
		}
		count = n
	}

	body, modStr := splitModifier(rest)

	sidesStr, khStr, hasKH := strings.Cut(body, "kh")
	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if sides < 1 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 1", expr)
	}

	keepHighest := 0
	if hasKH {
		kh, err := strconv.Atoi(khStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid kh value in %q: %w", expr, err)
		}
		if kh <= 0 || kh >= count {
			return Expression{}, fmt.Errorf("dice: kh value %d must be > 0 and < count %d in %q", kh, count, expr)
		}
		keepHighest = kh
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}

	return Expression{
		Raw:         expr,
		Count:       count,
		Sides:       sides,
		Modifier:    modifier,
		KeepHighest: keepHighest,
	}, nil
}

// splitModifier separates a trailing "+N"/"-N" from the part after 'd'.
// A sign at position 0 is not treated as a modifier.
func splitModifier(rest string) (body, mod string) {
	if i := strings.IndexAny(rest[min(1, len(rest)):], "+-"); i >= 0 {
		i++
		return rest[:i], rest[i:]
	}
	return rest, ""
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Range returns the lowest and highest totals the expression can produce, floored at zero.
//
// Postcondition: 0 <= lo <= hi.
func (e Expression) Range() (lo, hi int64) {
	kept := int64(e.Count)
	if e.KeepHighest > 0 {
		kept = int64(e.KeepHighest)
	}
	lo = kept + int64(e.Modifier)
	hi = kept*int64(e.Sides) + int64(e.Modifier)
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// String returns the original expression text.
func (e Expression) String() string {
	return e.Raw
}
