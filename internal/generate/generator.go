// Package generate turns policy text or a policy document into a workflow,
// a bounded decision tree and a checklist using a text-generation service.
package generate

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/solatis/policykeeper/internal/llm"
	"github.com/solatis/policykeeper/internal/types"
)

// rawPrefixBytes bounds the raw response attached to malformed-output errors.
const rawPrefixBytes = 200

// Input is one generation request. At least one of PolicyText and PDFBase64
// must be set.
type Input struct {
	Title      string
	PolicyText string
	PDFBase64  string
}

// GeneratedPolicy is the normalized generation result. IDs are assigned by
// the caller on persistence.
type GeneratedPolicy struct {
	Workflow     []types.WorkflowStep `json:"workflow" yaml:"workflow"`
	DecisionTree *types.DecisionNode  `json:"decisionTree" yaml:"decisionTree"`
	Checklist    []string             `json:"checklist" yaml:"checklist"`
}

// Generator runs the generation pipeline against an llm.Generator.
type Generator struct {
	llm    llm.Generator
	logger *slog.Logger
}

// New returns a Generator. A nil logger uses slog.Default().
func New(gen llm.Generator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: gen, logger: logger}
}

// Generate invokes the text-generation service and normalizes its output.
//
// Transport failures wrap types.ErrRateLimited or types.ErrUpstream.
// Unparseable output or a missing top-level field returns *types.OutputError
// with Kind types.ErrMalformedOutput; nothing partial is returned.
func (g *Generator) Generate(ctx context.Context, in Input) (*GeneratedPolicy, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, types.InvalidInput("title is required")
	}

	req := llm.Request{}
	if in.PDFBase64 != "" {
		data, err := decodePDF(in.PDFBase64)
		if err != nil {
			return nil, err
		}
		req.Document = &llm.Document{MIMEType: "application/pdf", Data: data}
	}
	text := strings.TrimSpace(in.PolicyText)
	if text == "" && req.Document == nil {
		return nil, types.InvalidInput("policy text or document is required")
	}
	req.Prompt = buildPrompt(title, text, req.Document != nil)

	raw, err := g.llm.GenerateText(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate policy: %w", llm.Classify(err))
	}

	obj, err := llm.ExtractObject(raw)
	if err != nil {
		return nil, &types.OutputError{Kind: types.ErrMalformedOutput, Reason: err.Error(), Raw: llm.Prefix(raw, rawPrefixBytes)}
	}

	workflow, ok := obj.Values["workflow"].([]any)
	if !ok {
		return nil, malformedField(raw, "workflow", "array")
	}
	treeRaw, ok := llm.AsObject(obj.Values["decision_tree"])
	if !ok {
		return nil, malformedField(raw, "decision_tree", "object")
	}
	checklist, ok := obj.Values["checklist"].([]any)
	if !ok {
		return nil, malformedField(raw, "checklist", "array")
	}

	tree, report := Sanitize(treeRaw, 1, types.MaxTreeDepth)
	if tree.IsLeaf() {
		tree = FallbackTree(title)
		report.RootReplaced = true
	}

	level := slog.LevelDebug
	if report.Repaired() {
		level = slog.LevelInfo
	}
	g.logger.Log(ctx, level, "decision tree sanitized",
		"title", title,
		"clean", report.Clean,
		"recovered", report.Recovered,
		"collapsed", report.Collapsed,
		"fallback", report.Fallback,
		"root_replaced", report.RootReplaced)

	return &GeneratedPolicy{
		Workflow:     normalizeWorkflow(workflow),
		DecisionTree: tree,
		Checklist:    normalizeChecklist(checklist),
	}, nil
}

func malformedField(raw, field, want string) error {
	return &types.OutputError{
		Kind:   types.ErrMalformedOutput,
		Reason: fmt.Sprintf("field %q missing or not an %s", field, want),
		Raw:    llm.Prefix(raw, rawPrefixBytes),
	}
}

// decodePDF accepts raw base64 or a data URL.
func decodePDF(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, types.InvalidInput("pdfBase64 is not valid base64: %v", err)
	}
	if len(data) == 0 {
		return nil, types.InvalidInput("pdfBase64 is empty")
	}
	return data, nil
}
