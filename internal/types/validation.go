package types

// Status is the overall verdict for a case.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusNeedsReview Status = "needs_review"
)

// RuleStatus classifies the outcome of a single rule.
type RuleStatus string

const (
	RulePassed  RuleStatus = "passed"
	RuleFailed  RuleStatus = "failed"
	RuleMissing RuleStatus = "missing"
)

// RuleResult is the outcome of one rule against one case.
type RuleResult struct {
	RuleID  string     `json:"ruleId" yaml:"ruleId"`
	Status  RuleStatus `json:"status" yaml:"status"`
	Message string     `json:"message" yaml:"message"`
}

// ValidationResult is derived on every validation call and never stored.
type ValidationResult struct {
	Status  Status       `json:"status" yaml:"status"`
	Results []RuleResult `json:"results" yaml:"results"`
}
