// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

/*
 * Operand coercion for rule evaluation.
 *
 * Case values arrive untyped: typed JSON from a user, AI-extracted JSON from a
 * document, or YAML from the CLI. Rule operands are equally loose. Coercion is
 * explicit and exhaustive; no host-language loose equality is involved.
 *
 * Numeric mode (tried first for both operands):
 *   - float64/float32/int/int32/int64/uint/uint32/uint64/json.Number: as-is
 *   - bool: true -> 1, false -> 0 (a rule "citizen == true" equals "citizen == 1")
 *   - string: trimmed, then strconv.ParseFloat; empty or whitespace-only is not a number
 *   - NaN and infinities are not numbers
 *   - nil and everything else: not a number
 *
 * Text mode (fallback for == and != only): both operands stringified with
 * stringify and compared byte-for-byte.
 */

// toNumber attempts strict numeric coercion. Returns false when value is not numeric.
func toNumber(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		return parseNumber(string(v))
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumber parses a trimmed decimal or float literal.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stringify renders a value for text comparison and result messages.
// Numbers use the shortest round-trip decimal form, so 20.0 renders as "20".
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
