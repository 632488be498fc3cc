// internal/rules/validate.go
package rules

import (
	"fmt"

	"github.com/solatis/policykeeper/internal/types"
)

/*
 * Case validation.
 *
 * Each rule is classified independently:
 *   - missing: key absent, value nil, or value exactly ""
 *   - passed:  Evaluate true, message is the rule description
 *   - failed:  Evaluate false, message names field, operator, operand and actual value
 *
 * Zero and false are values, not absences; they are evaluated.
 *
 * Verdict precedence: any failed -> rejected; else any missing -> needs_review;
 * else approved. An empty rule set approves every case with no results.
 */

// Validate evaluates every rule against caseData and reduces to one verdict.
func Validate(rules []types.PolicyRule, caseData types.CaseData) types.ValidationResult {
	if len(rules) == 0 {
		return types.ValidationResult{Status: types.StatusApproved, Results: []types.RuleResult{}}
	}

	results := make([]types.RuleResult, 0, len(rules))
	for _, rule := range rules {
		results = append(results, checkRule(rule, caseData))
	}

	return types.ValidationResult{Status: verdict(results), Results: results}
}

// checkRule classifies a single rule against the case.
func checkRule(rule types.PolicyRule, caseData types.CaseData) types.RuleResult {
	value, present := caseData[rule.Field]
	if !present || isBlank(value) {
		return types.RuleResult{
			RuleID:  rule.ID,
			Status:  types.RuleMissing,
			Message: fmt.Sprintf("Field %q is missing from case data", rule.Field),
		}
	}

	if Evaluate(value, rule.Operator, rule.Value) {
		return types.RuleResult{RuleID: rule.ID, Status: types.RulePassed, Message: rule.Description}
	}

	return types.RuleResult{
		RuleID: rule.ID,
		Status: types.RuleFailed,
		Message: fmt.Sprintf("Failed: %s %s %s (got: %s)",
			rule.Field, rule.Operator, stringify(rule.Value), stringify(value)),
	}
}

// isBlank reports nil and the empty string. Whitespace, 0 and false are values.
func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// verdict reduces rule results: failed > missing > approved.
func verdict(results []types.RuleResult) types.Status {
	missing := false
	for _, r := range results {
		switch r.Status {
		case types.RuleFailed:
			return types.StatusRejected
		case types.RuleMissing:
			missing = true
		}
	}
	if missing {
		return types.StatusNeedsReview
	}
	return types.StatusApproved
}
