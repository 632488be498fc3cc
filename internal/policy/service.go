// Package policy creates policies from generated structures and manages
// their lifecycle in a store.PolicyStore.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/solatis/policykeeper/internal/generate"
	"github.com/solatis/policykeeper/internal/store"
	"github.com/solatis/policykeeper/internal/types"
)

// Generator produces the structured parts of a policy.
type Generator interface {
	Generate(ctx context.Context, in generate.Input) (*generate.GeneratedPolicy, error)
}

// CreateRequest is the input for a new policy.
type CreateRequest struct {
	Title      string
	PolicyText string
	PDFBase64  string
	Rules      []types.PolicyRule
	UserID     string
}

// Service is the policy lifecycle.
type Service struct {
	store     store.PolicyStore
	generator Generator
	logger    *slog.Logger
}

// NewService returns a Service. A nil logger uses slog.Default().
func NewService(s store.PolicyStore, gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, generator: gen, logger: logger}
}

// Create validates req, generates the workflow, decision tree and checklist,
// assigns checklist and rule ids, and persists the policy.
// Nothing is stored when generation fails.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*types.Policy, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, types.InvalidInput("title is required")
	}
	if utf8.RuneCountInString(title) > types.MaxTitleLength {
		return nil, types.InvalidInput("title exceeds %d characters", types.MaxTitleLength)
	}
	if len(req.PolicyText) > types.MaxPolicyTextLength {
		return nil, types.InvalidInput("policyText exceeds %d bytes", types.MaxPolicyTextLength)
	}
	rules, err := prepareRules(req.Rules)
	if err != nil {
		return nil, err
	}

	gen, err := s.generator.Generate(ctx, generate.Input{
		Title:      title,
		PolicyText: req.PolicyText,
		PDFBase64:  req.PDFBase64,
	})
	if err != nil {
		return nil, err
	}

	checklist := make([]types.ChecklistItem, 0, len(gen.Checklist))
	for _, item := range gen.Checklist {
		checklist = append(checklist, types.ChecklistItem{ID: types.NewChecklistItemID(), Title: item})
	}

	created, err := s.store.Create(ctx, &types.Policy{
		Title:        title,
		InputText:    req.PolicyText,
		Workflow:     gen.Workflow,
		DecisionTree: gen.DecisionTree,
		Checklist:    checklist,
		Rules:        rules,
		UserID:       req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("store policy: %w", err)
	}

	s.logger.Info("policy created",
		"policy_id", created.ID,
		"user_id", created.UserID,
		"workflow_steps", len(created.Workflow),
		"checklist_items", len(created.Checklist),
		"rules", len(created.Rules))
	return created, nil
}

// prepareRules validates rules, trims operators and fills missing ids.
func prepareRules(in []types.PolicyRule) ([]types.PolicyRule, error) {
	if err := types.ValidateRules(in); err != nil {
		return nil, err
	}
	out := make([]types.PolicyRule, len(in))
	for i, r := range in {
		op, _ := types.ParseOperator(string(r.Operator))
		r.Operator = op
		r.Field = strings.TrimSpace(r.Field)
		if r.ID == "" {
			r.ID = types.NewRuleID()
		}
		out[i] = r
	}
	return out, nil
}

// Get returns types.ErrPolicyNotFound for unknown ids.
func (s *Service) Get(ctx context.Context, id string) (*types.Policy, error) {
	if strings.TrimSpace(id) == "" {
		return nil, types.InvalidInput("policy id is required")
	}
	return s.store.Get(ctx, id)
}

// List returns policies newest first, optionally filtered by owner.
func (s *Service) List(ctx context.Context, ownerID string) ([]*types.Policy, error) {
	return s.store.List(ctx, ownerID)
}

// UpdateChecklist replaces the checklist and returns the updated policy.
func (s *Service) UpdateChecklist(ctx context.Context, id string, items []types.ChecklistItem) (*types.Policy, error) {
	if strings.TrimSpace(id) == "" {
		return nil, types.InvalidInput("policy id is required")
	}
	if err := types.ValidateChecklist(items); err != nil {
		return nil, err
	}
	if err := s.store.UpdateChecklist(ctx, id, items); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}
