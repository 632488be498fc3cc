// internal/generate/sanitize.go
package generate

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/solatis/policykeeper/internal/llm"
	"github.com/solatis/policykeeper/internal/types"
)

/*
 * Decision-tree sanitizer.
 *
 * Converts an untrusted decoded JSON value into a bounded binary tree.
 * Shape probing order is fixed:
 *   1. depth >= maxDepth: leaf from action, else "Proceed with: <question>",
 *      else the fallback action
 *   2. non-empty question: internal node, yes/no sanitized at depth+1
 *      (absent branches become fallback leaves)
 *   3. non-empty action: leaf
 *   4. first key longer than minScavengeKeyRunes: internal node with the key
 *      as question, its value as yes, fallback leaf as no
 *   5. fallback leaf
 *
 * Sanitize never fails. The result may be a leaf; callers that need an
 * internal root must check IsLeaf and substitute FallbackTree.
 *
 * Text is NFC-normalized and trimmed before emptiness checks, so a value of
 * only whitespace counts as absent.
 */

const (
	// FallbackAction is the leaf used when a node cannot be interpreted.
	FallbackAction = "Escalate to a supervisor for manual review"

	collapsePrefix = "Proceed with: "

	// minScavengeKeyRunes filters out short keys ("a", "yes", "no") that
	// carry no question text.
	minScavengeKeyRunes = 3
)

// TreeReport counts which repair paths a sanitize run took.
type TreeReport struct {
	Clean        int // nodes taken as-is
	Recovered    int // internal nodes inferred from a bare object key
	Collapsed    int // questions at the depth ceiling turned into actions
	Fallback     int // unrecognized values replaced by FallbackAction
	RootReplaced bool
}

// Repaired reports whether any heuristic or fallback path was used.
func (r TreeReport) Repaired() bool {
	return r.Recovered > 0 || r.Collapsed > 0 || r.Fallback > 0 || r.RootReplaced
}

// Sanitize repairs raw into a tree whose nodes all sit at depth <= maxDepth,
// treating raw as a node at the given depth (the root is depth 1).
func Sanitize(raw any, depth, maxDepth int) (*types.DecisionNode, TreeReport) {
	var report TreeReport
	node := report.sanitize(raw, depth, maxDepth)
	return node, report
}

func (r *TreeReport) sanitize(raw any, depth, maxDepth int) *types.DecisionNode {
	obj, isObject := llm.AsObject(raw)

	if depth >= maxDepth {
		if action := textField(obj, "action"); action != "" {
			r.Clean++
			return types.NewAction(action)
		}
		if question := textField(obj, "question"); question != "" {
			r.Collapsed++
			return types.NewAction(collapsePrefix + question)
		}
		return r.fallback()
	}

	if question := textField(obj, "question"); question != "" {
		r.Clean++
		yes, _ := obj.Get("yes")
		no, _ := obj.Get("no")
		return types.NewQuestion(question,
			r.sanitize(yes, depth+1, maxDepth),
			r.sanitize(no, depth+1, maxDepth))
	}

	if action := textField(obj, "action"); action != "" {
		r.Clean++
		return types.NewAction(action)
	}

	if isObject && obj.Len() > 0 {
		key := cleanText(obj.Keys[0])
		if utf8.RuneCountInString(key) > minScavengeKeyRunes {
			r.Recovered++
			return types.NewQuestion(key,
				r.sanitize(obj.Values[obj.Keys[0]], depth+1, maxDepth),
				r.fallback())
		}
	}

	return r.fallback()
}

func (r *TreeReport) fallback() *types.DecisionNode {
	r.Fallback++
	return types.NewAction(FallbackAction)
}

// FallbackTree is the synthesized root used when the generated tree has no
// usable question at its root.
func FallbackTree(title string) *types.DecisionNode {
	subject := cleanText(title)
	if subject == "" {
		subject = "this policy"
	}
	return types.NewQuestion(
		"Does the request meet the eligibility requirements of "+subject+"?",
		types.NewQuestion(
			"Are all required documents provided?",
			types.NewAction("Approve the request"),
			types.NewAction("Request the missing documents from the applicant"),
		),
		types.NewAction("Reject the request and notify the applicant"),
	)
}

// textField returns obj[key] as cleaned text, or "" when absent or not a string.
func textField(obj *llm.Object, key string) string {
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return cleanText(s)
}

func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
