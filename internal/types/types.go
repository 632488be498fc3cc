// Package types provides domain models shared across policykeeper components.
//
// Policies are written to storage as whole documents; the same struct carries
// json, yaml, bson and db tags so that the HTTP API, the CLI and every store
// speak one shape. Only the checklist is mutated after creation.
package types

import "time"

// WorkflowStep is one entry of a policy workflow. Slice order is execution order.
type WorkflowStep struct {
	Step        string `json:"step" yaml:"step" bson:"step"`
	Description string `json:"description" yaml:"description" bson:"description"`
}

// ChecklistItem is a single field-officer checklist entry.
type ChecklistItem struct {
	ID        string `json:"id" yaml:"id" bson:"id"`
	Title     string `json:"title" yaml:"title" bson:"title"`
	Completed bool   `json:"completed" yaml:"completed" bson:"completed"`
}

// Policy is the unit of configuration produced by generation.
type Policy struct {
	ID           string          `json:"id" yaml:"id" bson:"_id"`
	Title        string          `json:"title" yaml:"title" bson:"title"`
	InputText    string          `json:"inputText" yaml:"inputText" bson:"input_text"`
	Workflow     []WorkflowStep  `json:"workflow" yaml:"workflow" bson:"workflow"`
	DecisionTree *DecisionNode   `json:"decisionTree" yaml:"decisionTree" bson:"decision_tree"`
	Checklist    []ChecklistItem `json:"checklist" yaml:"checklist" bson:"checklist"`
	Rules        []PolicyRule    `json:"rules" yaml:"rules" bson:"rules"`
	UserID       string          `json:"userId" yaml:"userId" bson:"user_id"`
	CreatedAt    time.Time       `json:"createdAt" yaml:"createdAt" bson:"created_at"`
}

// ValidateChecklist rejects checklist replacements with blank ids or titles.
func ValidateChecklist(items []ChecklistItem) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if item.ID == "" {
			return InvalidInput("checklist[%d]: id required", i)
		}
		if item.Title == "" {
			return InvalidInput("checklist[%d]: title required", i)
		}
		if seen[item.ID] {
			return InvalidInput("checklist[%d]: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = true
	}
	return nil
}

// Limits applied at the API boundary.
const (
	// MaxTitleLength bounds policy titles; titles are embedded in prompts and fallback trees.
	MaxTitleLength = 200

	// MaxPolicyTextLength bounds free-text input sent to the text-generation service.
	MaxPolicyTextLength = 200 * 1024

	// MaxRulesPerPolicy bounds validation cost per case.
	MaxRulesPerPolicy = 256

	// MaxCaseFields bounds flat case data size.
	MaxCaseFields = 512
)
