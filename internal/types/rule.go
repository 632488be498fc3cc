package types

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator of a PolicyRule.
type Operator string

const (
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	OpGte Operator = ">="
	OpLte Operator = "<="
	OpEq  Operator = "=="
	OpNeq Operator = "!="
)

// Operators lists every supported operator in display order.
var Operators = []Operator{OpGt, OpLt, OpGte, OpLte, OpEq, OpNeq}

// ParseOperator validates a textual operator.
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.TrimSpace(s))
	for _, known := range Operators {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}

// Ordering reports whether the operator needs numeric operands.
func (o Operator) Ordering() bool {
	return o == OpGt || o == OpLt || o == OpGte || o == OpLte
}

// PolicyRule is one validation clause. Rules are immutable once a policy exists.
type PolicyRule struct {
	ID          string   `json:"id" yaml:"id" bson:"id"`
	Field       string   `json:"field" yaml:"field" bson:"field"`
	Operator    Operator `json:"operator" yaml:"operator" bson:"operator"`
	Value       any      `json:"value" yaml:"value" bson:"value"`
	Description string   `json:"description" yaml:"description" bson:"description"`
}

// Validate checks a single rule: field set, known operator, scalar operand.
func (r PolicyRule) Validate() error {
	if strings.TrimSpace(r.Field) == "" {
		return InvalidInput("rule %q: field required", r.ID)
	}
	if _, err := ParseOperator(string(r.Operator)); err != nil {
		return InvalidInput("rule %q: %v", r.ID, err)
	}
	if r.Value == nil || !isScalar(r.Value) {
		return InvalidInput("rule %q: value must be a string, number or boolean", r.ID)
	}
	return nil
}

// ValidateRules checks every rule and rejects duplicate ids.
// Rules without an id are accepted; the policy service assigns one.
func ValidateRules(rules []PolicyRule) error {
	if len(rules) > MaxRulesPerPolicy {
		return InvalidInput("too many rules: %d (max %d)", len(rules), MaxRulesPerPolicy)
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
		if r.ID == "" {
			continue
		}
		if seen[r.ID] {
			return InvalidInput("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
