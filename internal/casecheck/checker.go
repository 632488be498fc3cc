// Package casecheck is the case validation entry point shared by the HTTP
// API, the gRPC service and document extraction.
package casecheck

import (
	"context"
	"strings"

	"github.com/solatis/policykeeper/internal/rules"
	"github.com/solatis/policykeeper/internal/types"
)

// PolicyGetter looks up a policy by id.
type PolicyGetter interface {
	Get(ctx context.Context, id string) (*types.Policy, error)
}

// Checker validates case data against stored policy rules.
type Checker struct {
	policies PolicyGetter
}

func NewChecker(policies PolicyGetter) *Checker {
	return &Checker{policies: policies}
}

// ValidateCase evaluates data against the rules of policyID.
//
// Errors: types.ErrInvalidInput for an empty policyID or nil data,
// types.ErrPolicyNotFound for an unknown policy, anything else from the store.
func (c *Checker) ValidateCase(ctx context.Context, policyID string, data types.CaseData) (types.ValidationResult, error) {
	if strings.TrimSpace(policyID) == "" {
		return types.ValidationResult{}, types.InvalidInput("policyId is required")
	}
	if data == nil {
		return types.ValidationResult{}, types.InvalidInput("caseData is required")
	}

	p, err := c.policies.Get(ctx, policyID)
	if err != nil {
		return types.ValidationResult{}, err
	}
	return rules.Validate(p.Rules, data), nil
}
