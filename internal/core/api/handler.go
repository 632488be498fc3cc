// Package api exposes policykeeper over HTTP (chi) and gRPC.
//
// Handlers decode and validate requests, delegate to the policy, casecheck and
// extract services, and translate service errors into a single error envelope.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/solatis/policykeeper/internal/extract"
	"github.com/solatis/policykeeper/internal/policy"
	"github.com/solatis/policykeeper/internal/types"
)

// DefaultMaxUploadBytes bounds request bodies when no limit is configured.
const DefaultMaxUploadBytes = 20 << 20

// PolicyService is the subset of policy.Service used by the HTTP API.
type PolicyService interface {
	Create(ctx context.Context, req policy.CreateRequest) (*types.Policy, error)
	Get(ctx context.Context, id string) (*types.Policy, error)
	List(ctx context.Context, ownerID string) ([]*types.Policy, error)
	UpdateChecklist(ctx context.Context, id string, items []types.ChecklistItem) (*types.Policy, error)
}

// CaseValidator validates flat case data against a stored policy.
type CaseValidator interface {
	ValidateCase(ctx context.Context, policyID string, data types.CaseData) (types.ValidationResult, error)
}

// CaseExtractor extracts case data from a document and validates it.
type CaseExtractor interface {
	ExtractCase(ctx context.Context, policyID string, pdf []byte) (*extract.Result, error)
}

// Options configures a Handler.
type Options struct {
	Policies  PolicyService
	Cases     CaseValidator
	Extractor CaseExtractor
	Logger    *slog.Logger

	// MaxUploadBytes bounds every request body. Zero uses DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// Handler serves the policykeeper HTTP API.
type Handler struct {
	policies  PolicyService
	cases     CaseValidator
	extractor CaseExtractor
	validate  *validator.Validate
	logger    *slog.Logger
	maxBody   int64
}

// NewHandler builds a Handler from opts.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := opts.MaxUploadBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxUploadBytes
	}
	return &Handler{
		policies:  opts.Policies,
		cases:     opts.Cases,
		extractor: opts.Extractor,
		validate:  newValidator(),
		logger:    logger,
		maxBody:   maxBody,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
