package generate

import "strings"

const instruction = `You convert organizational policy documents into a structured operating procedure.

Respond with a single JSON object and nothing else. The object has exactly three fields:

  "workflow":      an array of steps in execution order; each step is an object
                   {"step": "<short step name>", "description": "<what the officer does>"}
  "decision_tree": a binary yes/no decision tree (rules below)
  "checklist":     an array of short strings, one per item the officer must confirm

Decision tree rules:
  - Every node is EITHER a question node {"question": "...", "yes": <node>, "no": <node>}
    OR an action node {"action": "..."}. Never both.
  - The root must be a question node.
  - The tree is at most 3 levels deep; every node at level 3 is an action node.
  - Questions are answerable with yes or no. Actions are concrete instructions.

Example:
{
  "workflow": [
    {"step": "Receive application", "description": "Log the application and assign a case number."},
    {"step": "Verify eligibility", "description": "Check the applicant against the eligibility criteria."}
  ],
  "decision_tree": {
    "question": "Is the applicant a resident?",
    "yes": {
      "question": "Is the income below the threshold?",
      "yes": {"action": "Approve the application"},
      "no": {"action": "Reject: income above threshold"}
    },
    "no": {"action": "Reject: applicant is not a resident"}
  },
  "checklist": ["Proof of residence attached", "Income statement attached"]
}
`

// buildPrompt places the fixed instruction ahead of the caller's policy content.
func buildPrompt(title, policyText string, hasDocument bool) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\nPolicy title: ")
	b.WriteString(title)
	b.WriteString("\n")
	if hasDocument {
		b.WriteString("\nThe policy document is attached.\n")
	}
	if policyText != "" {
		b.WriteString("\nPolicy text:\n")
		b.WriteString(policyText)
		b.WriteString("\n")
	}
	return b.String()
}
