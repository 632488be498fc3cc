// internal/rules/operators.go
package rules

import "github.com/solatis/policykeeper/internal/types"

/*
 * Operator comparison logic.
 *
 * Evaluate is a two-branch function:
 *   1. Both operands coerce to numbers: numeric comparison for all six operators.
 *   2. Otherwise only == and != are defined, by string identity of the
 *      stringified operands. Ordering operators on non-numeric operands are
 *      false. This is a policy decision, not an error.
 *
 * Evaluate never panics and has no side effects; unparseable numeric input
 * simply falls through to the text branch.
 */

// Evaluate compares one case value against one rule operand.
func Evaluate(caseValue any, op types.Operator, ruleValue any) bool {
	if a, b, ok := asNumbers(caseValue, ruleValue); ok {
		return compareNumeric(op, a, b)
	}
	switch op {
	case types.OpEq:
		return stringify(caseValue) == stringify(ruleValue)
	case types.OpNeq:
		return stringify(caseValue) != stringify(ruleValue)
	default:
		return false
	}
}

// compareNumeric applies op to two numbers. Unknown operators are false.
func compareNumeric(op types.Operator, a, b float64) bool {
	switch op {
	case types.OpGt:
		return a > b
	case types.OpLt:
		return a < b
	case types.OpGte:
		return a >= b
	case types.OpLte:
		return a <= b
	case types.OpEq:
		return a == b
	case types.OpNeq:
		return a != b
	default:
		return false
	}
}

// asNumbers attempts to convert both values to float64 for numeric comparison.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toNumber(a)
	if !oka {
		return 0, 0, false
	}
	nb, okb := toNumber(b)
	return na, nb, okb
}
