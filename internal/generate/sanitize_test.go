package generate

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/policykeeper/internal/llm"
	"github.com/solatis/policykeeper/internal/types"
)

func obj(pairs ...any) *llm.Object {
	o := &llm.Object{Values: map[string]any{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		k := pairs[i].(string)
		o.Keys = append(o.Keys, k)
		o.Values[k] = pairs[i+1]
	}
	return o
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want *types.DecisionNode
	}{
		{
			name: "well formed tree",
			raw: obj("question", "Is the applicant a resident?",
				"yes", obj("action", "Approve"),
				"no", obj("action", "Reject")),
			want: types.NewQuestion("Is the applicant a resident?",
				types.NewAction("Approve"), types.NewAction("Reject")),
		},
		{
			name: "text is trimmed",
			raw:  obj("question", "  Resident? ", "yes", obj("action", " Approve\n"), "no", obj("action", "Reject")),
			want: types.NewQuestion("Resident?", types.NewAction("Approve"), types.NewAction("Reject")),
		},
		{
			name: "absent branches become fallback leaves",
			raw:  obj("question", "Resident?"),
			want: types.NewQuestion("Resident?", types.NewAction(FallbackAction), types.NewAction(FallbackAction)),
		},
		{
			name: "question at ceiling collapses to action",
			raw: obj("question", "A?",
				"yes", obj("question", "B?",
					"yes", obj("question", "C?", "yes", obj("action", "x"), "no", obj("action", "y")),
					"no", obj("action", "deep no")),
				"no", obj("action", "Reject")),
			want: types.NewQuestion("A?",
				types.NewQuestion("B?",
					types.NewAction("Proceed with: C?"),
					types.NewAction("deep no")),
				types.NewAction("Reject")),
		},
		{
			name: "action wins over question at ceiling",
			raw: obj("question", "A?",
				"yes", obj("question", "B?",
					"yes", obj("question", "C?", "action", "Do C"),
					"no", "garbage"),
				"no", obj("action", "Reject")),
			want: types.NewQuestion("A?",
				types.NewQuestion("B?",
					types.NewAction("Do C"),
					types.NewAction(FallbackAction)),
				types.NewAction("Reject")),
		},
		{
			name: "question wins over action below ceiling",
			raw:  obj("action", "Approve", "question", "Resident?"),
			want: types.NewQuestion("Resident?", types.NewAction(FallbackAction), types.NewAction(FallbackAction)),
		},
		{
			name: "first key scavenged as question",
			raw:  obj("Is the form signed?", obj("action", "Accept"), "other", obj("action", "ignored")),
			want: types.NewQuestion("Is the form signed?", types.NewAction("Accept"), types.NewAction(FallbackAction)),
		},
		{
			name: "short first key is not scavenged",
			raw:  obj("yes", obj("action", "Accept")),
			want: types.NewAction(FallbackAction),
		},
		{
			name: "whitespace question is absent",
			raw:  obj("question", "   ", "action", "Approve"),
			want: types.NewAction("Approve"),
		},
		{
			name: "non-string question ignored",
			raw:  obj("question", 42.0, "action", "Approve"),
			want: types.NewAction("Approve"),
		},
		{name: "nil", raw: nil, want: types.NewAction(FallbackAction)},
		{name: "string", raw: "just text", want: types.NewAction(FallbackAction)},
		{name: "array", raw: []any{obj("action", "x")}, want: types.NewAction(FallbackAction)},
		{name: "empty object", raw: obj(), want: types.NewAction(FallbackAction)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Sanitize(tt.raw, 1, types.MaxTreeDepth)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_PlainMapsUseSortedKeys(t *testing.T) {
	raw := map[string]any{
		"zzzz unrelated": "x",
		"Does the case qualify?": map[string]any{"action": "Approve"},
	}
	got, report := Sanitize(raw, 1, types.MaxTreeDepth)
	assert.Equal(t, "Does the case qualify?", got.Question)
	assert.Equal(t, "Approve", got.Yes.Action)
	assert.Equal(t, 1, report.Recovered)
}

func TestSanitize_Report(t *testing.T) {
	raw := obj("question", "A?",
		"yes", obj("Scavenged question", obj("question", "too deep")),
		"no", obj("action", "Reject"))

	tree, report := Sanitize(raw, 1, types.MaxTreeDepth)
	require.False(t, tree.IsLeaf())
	assert.Equal(t, "Proceed with: too deep", tree.Yes.Yes.Action)
	assert.Equal(t, TreeReport{Clean: 2, Recovered: 1, Collapsed: 1, Fallback: 1}, report)
	assert.True(t, report.Repaired())

	_, clean := Sanitize(obj("question", "A?", "yes", obj("action", "y"), "no", obj("action", "n")), 1, 3)
	assert.Equal(t, TreeReport{Clean: 3}, clean)
	assert.False(t, clean.Repaired())
}

func TestFallbackTree(t *testing.T) {
	tree := FallbackTree("  Housing Grant ")
	assert.Contains(t, tree.Question, "Housing Grant")
	assert.False(t, tree.IsLeaf())
	assert.LessOrEqual(t, tree.Depth(), types.MaxTreeDepth)

	assert.Contains(t, FallbackTree("").Question, "this policy")
}

// rawKeys mixes recognized keys, scavengeable keys and short keys.
var rawKeys = []string{"question", "action", "yes", "no", "Is the applicant eligible?", "ok", "Has the form been signed?", ""}

func randomRaw(rng *rand.Rand, depth int) any {
	limit := 8
	if depth > 6 {
		limit = 4 // primitives only
	}
	switch rng.Intn(limit) {
	case 0:
		return nil
	case 1:
		return []string{"", "  ", "Approve", "Is it complete?", "x"}[rng.Intn(5)]
	case 2:
		return rng.Float64() * 100
	case 3:
		return rng.Intn(2) == 0
	case 4:
		arr := make([]any, rng.Intn(3))
		for i := range arr {
			arr[i] = randomRaw(rng, depth+1)
		}
		return arr
	case 5:
		m := map[string]any{}
		for i := rng.Intn(4); i > 0; i-- {
			m[rawKeys[rng.Intn(len(rawKeys))]] = randomRaw(rng, depth+1)
		}
		return m
	default:
		o := &llm.Object{Values: map[string]any{}}
		for i := rng.Intn(4); i > 0; i-- {
			k := rawKeys[rng.Intn(len(rawKeys))]
			if _, dup := o.Values[k]; !dup {
				o.Keys = append(o.Keys, k)
			}
			o.Values[k] = randomRaw(rng, depth+1)
		}
		return o
	}
}

// rawCase boxes a generated value so nil inputs keep a concrete type.
type rawCase struct{ V any }

func genRaw() gopter.Gen {
	return func(p *gopter.GenParameters) *gopter.GenResult {
		return gopter.NewGenResult(rawCase{V: randomRaw(p.Rng, 0)}, gopter.NoShrinker)
	}
}

// wellFormed checks node shape and the depth ceiling.
func wellFormed(root *types.DecisionNode, maxDepth int) bool {
	ok := true
	root.Walk(func(n *types.DecisionNode, depth int) bool {
		switch {
		case depth > maxDepth:
			ok = false
		case n.Question != "" && n.Action != "":
			ok = false
		case n.IsLeaf() && (n.Action == "" || n.Yes != nil || n.No != nil):
			ok = false
		case !n.IsLeaf() && (depth == maxDepth || n.Yes == nil || n.No == nil):
			ok = false
		}
		return ok
	})
	return ok
}

func TestSanitizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("depth never exceeds the ceiling", prop.ForAll(
		func(raw rawCase) bool {
			tree, _ := Sanitize(raw.V, 1, types.MaxTreeDepth)
			return tree.Depth() <= types.MaxTreeDepth
		},
		genRaw(),
	))

	properties.Property("every node is a leaf or a complete question", prop.ForAll(
		func(raw rawCase) bool {
			tree, _ := Sanitize(raw.V, 1, types.MaxTreeDepth)
			return wellFormed(tree, types.MaxTreeDepth)
		},
		genRaw(),
	))

	properties.Property("report accounts for every leaf", prop.ForAll(
		func(raw rawCase) bool {
			tree, report := Sanitize(raw.V, 1, types.MaxTreeDepth)
			leaves := 0
			tree.Walk(func(n *types.DecisionNode, _ int) bool {
				if n.IsLeaf() {
					leaves++
				}
				return true
			})
			return leaves <= report.Clean+report.Collapsed+report.Fallback
		},
		genRaw(),
	))

	properties.TestingRun(t)
}
