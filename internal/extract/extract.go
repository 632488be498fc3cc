// Package extract converts an uploaded case document into flat case data
// with the text-generation service and validates it against a policy.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/solatis/policykeeper/internal/llm"
	"github.com/solatis/policykeeper/internal/types"
)

const pdfMIMEType = "application/pdf"

// PolicyGetter supplies rule hints for the extraction prompt.
type PolicyGetter interface {
	Get(ctx context.Context, id string) (*types.Policy, error)
}

// CaseValidator validates extracted case data.
type CaseValidator interface {
	ValidateCase(ctx context.Context, policyID string, data types.CaseData) (types.ValidationResult, error)
}

// Result is the extracted data merged with its validation outcome.
type Result struct {
	ExtractedData types.CaseData `json:"extractedData" yaml:"extractedData"`
	types.ValidationResult
}

// Extractor runs document extraction.
type Extractor struct {
	files    llm.FileStore
	llm      llm.Generator
	policies PolicyGetter
	cases    CaseValidator
	logger   *slog.Logger
}

// New returns an Extractor. A nil logger uses slog.Default().
func New(files llm.FileStore, gen llm.Generator, policies PolicyGetter, cases CaseValidator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{files: files, llm: gen, policies: policies, cases: cases, logger: logger}
}

// ExtractCase uploads pdf, extracts flat case data guided by the policy's
// rules, and validates it. The uploaded file is deleted before returning on
// every path after a successful upload; delete failures are logged only.
//
// A response without a JSON object returns *types.OutputError with Kind
// types.ErrExtractionFailed and the full raw response.
func (e *Extractor) ExtractCase(ctx context.Context, policyID string, pdf []byte) (*Result, error) {
	policyID = strings.TrimSpace(policyID)
	if policyID == "" {
		return nil, types.InvalidInput("policyId is required")
	}
	if len(pdf) == 0 {
		return nil, types.InvalidInput("document is empty")
	}

	file, err := e.files.UploadFile(ctx, pdf, pdfMIMEType, "case-"+policyID+".pdf")
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", llm.Classify(err))
	}
	defer e.release(ctx, file)

	var rules []types.PolicyRule
	p, err := e.policies.Get(ctx, policyID)
	switch {
	case errors.Is(err, types.ErrPolicyNotFound):
		// Validation would report not-found anyway; skip the generation call.
		return nil, err
	case err != nil:
		e.logger.Warn("rule hints unavailable, extracting unguided", "policy_id", policyID, "error", err)
	default:
		rules = p.Rules
	}

	raw, err := e.llm.GenerateText(ctx, llm.Request{
		Prompt:   buildPrompt(rules),
		Document: &llm.Document{MIMEType: file.MIMEType, URI: file.URI},
	})
	if err != nil {
		return nil, fmt.Errorf("extract case: %w", llm.Classify(err))
	}

	obj, err := llm.ExtractObject(raw)
	if err != nil {
		return nil, &types.OutputError{Kind: types.ErrExtractionFailed, Reason: err.Error(), Raw: raw}
	}
	data := e.flatten(policyID, obj)

	result, err := e.cases.ValidateCase(ctx, policyID, data)
	if err != nil {
		return nil, err
	}
	return &Result{ExtractedData: data, ValidationResult: result}, nil
}

// release deletes the uploaded file even when ctx is already done.
func (e *Extractor) release(ctx context.Context, file llm.File) {
	if err := e.files.DeleteFile(context.WithoutCancel(ctx), file.Name); err != nil {
		e.logger.Warn("failed to delete uploaded document", "file", file.Name, "error", err)
	}
}

// flatten keeps scalar fields; nested values are dropped.
func (e *Extractor) flatten(policyID string, obj *llm.Object) types.CaseData {
	data := make(types.CaseData, obj.Len())
	var dropped []string
	for _, k := range obj.Keys {
		switch v := obj.Values[k].(type) {
		case string, float64, bool, nil:
			data[k] = v
		default:
			dropped = append(dropped, k)
		}
	}
	if len(dropped) > 0 {
		e.logger.Info("dropped nested extracted fields", "policy_id", policyID, "fields", dropped)
	}
	return data
}
