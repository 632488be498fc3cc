package rules

import (
	"testing"

	"github.com/solatis/policykeeper/internal/types"
)

func adultRule() types.PolicyRule {
	return types.PolicyRule{ID: "r1", Field: "age", Operator: types.OpGte, Value: 18.0, Description: "Adult"}
}

func TestValidate_Approved(t *testing.T) {
	got := Validate([]types.PolicyRule{adultRule()}, types.CaseData{"age": 20.0})

	if got.Status != types.StatusApproved {
		t.Fatalf("Status = %q, want approved", got.Status)
	}
	if len(got.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(got.Results))
	}
	want := types.RuleResult{RuleID: "r1", Status: types.RulePassed, Message: "Adult"}
	if got.Results[0] != want {
		t.Errorf("Results[0] = %+v, want %+v", got.Results[0], want)
	}
}

func TestValidate_MissingField(t *testing.T) {
	got := Validate([]types.PolicyRule{adultRule()}, types.CaseData{})

	if got.Status != types.StatusNeedsReview {
		t.Fatalf("Status = %q, want needs_review", got.Status)
	}
	if got.Results[0].Status != types.RuleMissing {
		t.Errorf("Results[0].Status = %q, want missing", got.Results[0].Status)
	}
	if got.Results[0].Message != `Field "age" is missing from case data` {
		t.Errorf("Results[0].Message = %q", got.Results[0].Message)
	}
}

func TestValidate_FailedMessage(t *testing.T) {
	got := Validate([]types.PolicyRule{adultRule()}, types.CaseData{"age": 16.0})

	if got.Status != types.StatusRejected {
		t.Fatalf("Status = %q, want rejected", got.Status)
	}
	if got.Results[0].Message != "Failed: age >= 18 (got: 16)" {
		t.Errorf("Results[0].Message = %q", got.Results[0].Message)
	}
}

func TestValidate_EmptyRulesApprove(t *testing.T) {
	for _, data := range []types.CaseData{nil, {}, {"anything": "goes", "age": 1.0}} {
		got := Validate(nil, data)
		if got.Status != types.StatusApproved {
			t.Errorf("Status = %q, want approved for %v", got.Status, data)
		}
		if got.Results == nil || len(got.Results) != 0 {
			t.Errorf("Results = %v, want empty non-nil slice", got.Results)
		}
	}
}

func TestValidate_Precedence(t *testing.T) {
	rules := []types.PolicyRule{
		adultRule(),
		{ID: "r2", Field: "income", Operator: types.OpLt, Value: 50000, Description: "Low income"},
	}

	tests := []struct {
		name string
		data types.CaseData
		want types.Status
	}{
		{name: "failed and missing is rejected", data: types.CaseData{"age": 10.0}, want: types.StatusRejected},
		{name: "passed and missing is needs_review", data: types.CaseData{"age": 30.0}, want: types.StatusNeedsReview},
		{name: "all passed is approved", data: types.CaseData{"age": 30.0, "income": 100.0}, want: types.StatusApproved},
		{name: "all failed is rejected", data: types.CaseData{"age": 1.0, "income": 1e6}, want: types.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(rules, tt.data); got.Status != tt.want {
				t.Errorf("Status = %q, want %q", got.Status, tt.want)
			}
		})
	}
}

func TestValidate_MissingDetection(t *testing.T) {
	eqZero := types.PolicyRule{ID: "z", Field: "count", Operator: types.OpEq, Value: 0, Description: "zero"}
	eqFalse := types.PolicyRule{ID: "f", Field: "flag", Operator: types.OpEq, Value: false, Description: "false"}

	tests := []struct {
		name string
		rule types.PolicyRule
		data types.CaseData
		want types.RuleStatus
	}{
		{name: "absent key", rule: eqZero, data: types.CaseData{}, want: types.RuleMissing},
		{name: "nil value", rule: eqZero, data: types.CaseData{"count": nil}, want: types.RuleMissing},
		{name: "empty string", rule: eqZero, data: types.CaseData{"count": ""}, want: types.RuleMissing},
		{name: "zero is a value", rule: eqZero, data: types.CaseData{"count": 0.0}, want: types.RulePassed},
		{name: "false is a value", rule: eqFalse, data: types.CaseData{"flag": false}, want: types.RulePassed},
		{name: "whitespace is a value", rule: eqZero, data: types.CaseData{"count": " "}, want: types.RuleFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate([]types.PolicyRule{tt.rule}, tt.data)
			if got.Results[0].Status != tt.want {
				t.Errorf("Status = %q, want %q", got.Results[0].Status, tt.want)
			}
		})
	}
}

func TestValidate_PreservesRuleOrder(t *testing.T) {
	rules := []types.PolicyRule{
		{ID: "a", Field: "x", Operator: types.OpEq, Value: "1"},
		{ID: "b", Field: "y", Operator: types.OpEq, Value: "2"},
		{ID: "c", Field: "z", Operator: types.OpEq, Value: "3"},
	}
	got := Validate(rules, types.CaseData{"x": "1", "y": "2", "z": "3"})
	for i, id := range []string{"a", "b", "c"} {
		if got.Results[i].RuleID != id {
			t.Errorf("Results[%d].RuleID = %q, want %q", i, got.Results[i].RuleID, id)
		}
	}
}
