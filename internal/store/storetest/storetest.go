// Package storetest holds the behavior suite every store.PolicyStore must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/policykeeper/internal/store"
	"github.com/solatis/policykeeper/internal/types"
)

// SamplePolicy returns a fully populated policy owned by userID.
func SamplePolicy(title, userID string) *types.Policy {
	return &types.Policy{
		Title:     title,
		InputText: "Applicants must be adults.",
		Workflow: []types.WorkflowStep{
			{Step: "Receive", Description: "Log the application."},
			{Step: "Decide", Description: "Approve or reject."},
		},
		DecisionTree: types.NewQuestion("Is the applicant an adult?",
			types.NewQuestion("Are documents complete?",
				types.NewAction("Approve"),
				types.NewAction("Request documents")),
			types.NewAction("Reject")),
		Checklist: []types.ChecklistItem{
			{ID: "c1", Title: "ID verified"},
			{ID: "c2", Title: "Form signed", Completed: true},
		},
		Rules: []types.PolicyRule{
			{ID: "r1", Field: "age", Operator: types.OpGte, Value: 18.0, Description: "Adult"},
			{ID: "r2", Field: "country", Operator: types.OpEq, Value: "NL", Description: "Resident"},
			{ID: "r3", Field: "signed", Operator: types.OpEq, Value: true, Description: "Signed"},
		},
		UserID: userID,
	}
}

// Run exercises s. The store must start empty.
func Run(t *testing.T, s store.PolicyStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns id and time", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		created, err := s.Create(ctx, SamplePolicy("Create", "owner-create"))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.True(t, created.CreatedAt.After(before), "CreatedAt %v not after %v", created.CreatedAt, before)
	})

	t.Run("get round trips every field", func(t *testing.T) {
		want, err := s.Create(ctx, SamplePolicy("Round trip", "owner-get"))
		require.NoError(t, err)

		got, err := s.Get(ctx, want.ID)
		require.NoError(t, err)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		got.CreatedAt = want.CreatedAt
		assert.Equal(t, want, got)
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		_, err := s.Get(ctx, "does-not-exist")
		assert.True(t, errors.Is(err, types.ErrPolicyNotFound), "err = %v", err)
	})

	t.Run("list filters by owner newest first", func(t *testing.T) {
		var ids []string
		for _, title := range []string{"first", "second", "third"} {
			p, err := s.Create(ctx, SamplePolicy(title, "owner-list"))
			require.NoError(t, err)
			ids = append(ids, p.ID)
			time.Sleep(2 * time.Millisecond)
		}
		_, err := s.Create(ctx, SamplePolicy("other", "someone-else"))
		require.NoError(t, err)

		listed, err := s.List(ctx, "owner-list")
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{listed[0].ID, listed[1].ID, listed[2].ID})

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 4)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "list not newest first at %d", i)
		}
	})

	t.Run("list unknown owner is empty", func(t *testing.T) {
		listed, err := s.List(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("update checklist", func(t *testing.T) {
		p, err := s.Create(ctx, SamplePolicy("Checklist", "owner-checklist"))
		require.NoError(t, err)

		next := []types.ChecklistItem{{ID: "c1", Title: "ID verified", Completed: true}}
		require.NoError(t, s.UpdateChecklist(ctx, p.ID, next))

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, next, got.Checklist)
		assert.Equal(t, p.Rules, got.Rules, "rules must not change")
	})

	t.Run("update checklist unknown id", func(t *testing.T) {
		err := s.UpdateChecklist(ctx, "does-not-exist", nil)
		assert.True(t, errors.Is(err, types.ErrPolicyNotFound), "err = %v", err)
	})
}
