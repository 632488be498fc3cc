package generate

import (
	"strconv"

	"github.com/solatis/policykeeper/internal/llm"
	"github.com/solatis/policykeeper/internal/types"
)

// Step names are read from the first of these keys that holds text.
var stepKeys = []string{"step", "title"}

var fallbackWorkflow = []types.WorkflowStep{
	{Step: "Review request", Description: "Check the submitted request against the policy requirements."},
	{Step: "Record decision", Description: "Record the outcome of the review and notify the applicant."},
}

var fallbackChecklist = []string{
	"Verify the applicant's identity",
	"Confirm all required documents are attached",
	"Record the decision and its rationale",
}

// normalizeWorkflow keeps object entries with a non-empty step name.
// An empty result is replaced by a fixed two-step workflow.
func normalizeWorkflow(entries []any) []types.WorkflowStep {
	steps := make([]types.WorkflowStep, 0, len(entries))
	for _, e := range entries {
		obj, ok := llm.AsObject(e)
		if !ok {
			continue
		}
		var name string
		for _, k := range stepKeys {
			if name = textField(obj, k); name != "" {
				break
			}
		}
		if name == "" {
			continue
		}
		steps = append(steps, types.WorkflowStep{Step: name, Description: textField(obj, "description")})
	}
	if len(steps) == 0 {
		return append([]types.WorkflowStep(nil), fallbackWorkflow...)
	}
	return steps
}

// normalizeChecklist coerces entries to trimmed text and drops empties.
// Objects contribute their "title" text; other non-scalars are dropped.
// An empty result is replaced by a fixed three-item checklist.
func normalizeChecklist(entries []any) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		var text string
		switch v := e.(type) {
		case string:
			text = cleanText(v)
		case float64:
			text = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			text = strconv.FormatBool(v)
		default:
			if obj, ok := llm.AsObject(v); ok {
				text = textField(obj, "title")
			}
		}
		if text != "" {
			items = append(items, text)
		}
	}
	if len(items) == 0 {
		return append([]string(nil), fallbackChecklist...)
	}
	return items
}
