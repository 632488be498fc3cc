package extract

import (
	"strings"

	"github.com/solatis/policykeeper/internal/types"
)

const instruction = `Extract the case data from the attached document.

Respond with a single flat JSON object and nothing else:
  - keys are camelCase field names
  - values are strings, numbers or booleans only
  - no nested objects or arrays
  - omit fields that do not appear in the document
`

// buildPrompt appends one hint line per distinct rule field.
func buildPrompt(rules []types.PolicyRule) string {
	var b strings.Builder
	b.WriteString(instruction)

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Field == "" || seen[r.Field] {
			continue
		}
		if len(seen) == 0 {
			b.WriteString("\nThe case is checked against the fields below. Use exactly these keys when the document provides them:\n")
		}
		seen[r.Field] = true
		b.WriteString("- ")
		b.WriteString(r.Field)
		if d := strings.TrimSpace(r.Description); d != "" {
			b.WriteString(": ")
			b.WriteString(d)
		}
		b.WriteString("\n")
	}
	return b.String()
}
