// Package store defines policy persistence and an in-memory implementation.
//
// Relational stores live in sqlstore, the document store in mongostore.
// Every implementation assigns the policy id and creation time on Create,
// lists newest first, and reports unknown ids as types.ErrPolicyNotFound.
// Transport and permission failures are returned as-is, never as not-found.
package store

import (
	"context"
	"time"

	"github.com/solatis/policykeeper/internal/types"
)

// TimestampFormat is the fixed-width UTC layout used for persisted creation
// times; text order equals time order.
const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// PolicyStore persists policies.
type PolicyStore interface {
	// Create stores p, assigning ID (when empty) and CreatedAt, and returns the stored policy.
	Create(ctx context.Context, p *types.Policy) (*types.Policy, error)
	// Get returns types.ErrPolicyNotFound for unknown ids.
	Get(ctx context.Context, id string) (*types.Policy, error)
	// List returns policies newest first; an empty ownerID lists every policy.
	List(ctx context.Context, ownerID string) ([]*types.Policy, error)
	// UpdateChecklist replaces the checklist of an existing policy.
	UpdateChecklist(ctx context.Context, id string, checklist []types.ChecklistItem) error
	Close() error
}

// Prepare returns a copy of p with ID and CreatedAt assigned. CreatedAt is
// UTC with microsecond precision so it survives every backend unchanged.
func Prepare(p *types.Policy, now time.Time) *types.Policy {
	out := Clone(p)
	if out.ID == "" {
		out.ID = types.NewPolicyID()
	}
	out.CreatedAt = now.UTC().Truncate(time.Microsecond)
	if out.Workflow == nil {
		out.Workflow = []types.WorkflowStep{}
	}
	if out.Checklist == nil {
		out.Checklist = []types.ChecklistItem{}
	}
	if out.Rules == nil {
		out.Rules = []types.PolicyRule{}
	}
	return out
}

// Clone deep-copies a policy.
func Clone(p *types.Policy) *types.Policy {
	if p == nil {
		return nil
	}
	out := *p
	out.Workflow = cloneSlice(p.Workflow)
	out.Checklist = cloneSlice(p.Checklist)
	out.Rules = cloneSlice(p.Rules)
	out.DecisionTree = cloneTree(p.DecisionTree)
	return &out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func cloneTree(n *types.DecisionNode) *types.DecisionNode {
	if n == nil {
		return nil
	}
	return &types.DecisionNode{
		Question: n.Question,
		Action:   n.Action,
		Yes:      cloneTree(n.Yes),
		No:       cloneTree(n.No),
	}
}
