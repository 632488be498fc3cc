// Package sqlstore implements store.PolicyStore on SQLite or PostgreSQL.
//
// Structured policy parts are stored as JSON documents in text (SQLite) or
// JSONB (PostgreSQL) columns; creation time is store.TimestampFormat text.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/policykeeper/internal/core/db"
	"github.com/solatis/policykeeper/internal/store"
	"github.com/solatis/policykeeper/internal/types"
)

// Store is a relational PolicyStore.
type Store struct {
	conn    *sqlx.DB
	queries *db.Queries
	now     func() time.Time
}

// New wraps an open, migrated connection. Close closes conn.
func New(conn *sqlx.DB) (*Store, error) {
	q, err := db.LoadQueries(conn)
	if err != nil {
		return nil, err
	}
	return &Store{conn: conn, queries: q, now: time.Now}, nil
}

// policyRow mirrors the policies table.
type policyRow struct {
	ID           string `db:"policy_id"`
	Title        string `db:"title"`
	InputText    string `db:"input_text"`
	Workflow     string `db:"workflow"`
	DecisionTree string `db:"decision_tree"`
	Checklist    string `db:"checklist"`
	Rules        string `db:"rules"`
	UserID       string `db:"user_id"`
	CreatedAt    string `db:"created_at"`
}

func toRow(p *types.Policy) (policyRow, error) {
	row := policyRow{
		ID:        p.ID,
		Title:     p.Title,
		InputText: p.InputText,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt.UTC().Format(store.TimestampFormat),
	}
	var err error
	if row.Workflow, err = encode(p.Workflow); err != nil {
		return row, fmt.Errorf("encode workflow: %w", err)
	}
	if row.DecisionTree, err = encode(p.DecisionTree); err != nil {
		return row, fmt.Errorf("encode decision tree: %w", err)
	}
	if row.Checklist, err = encode(p.Checklist); err != nil {
		return row, fmt.Errorf("encode checklist: %w", err)
	}
	if row.Rules, err = encode(p.Rules); err != nil {
		return row, fmt.Errorf("encode rules: %w", err)
	}
	return row, nil
}

func (r policyRow) policy() (*types.Policy, error) {
	createdAt, err := time.Parse(store.TimestampFormat, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("policy %s: bad created_at %q: %w", r.ID, r.CreatedAt, err)
	}
	p := &types.Policy{
		ID:        r.ID,
		Title:     r.Title,
		InputText: r.InputText,
		UserID:    r.UserID,
		CreatedAt: createdAt,
	}
	if err := json.Unmarshal([]byte(r.Workflow), &p.Workflow); err != nil {
		return nil, fmt.Errorf("policy %s: decode workflow: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.DecisionTree), &p.DecisionTree); err != nil {
		return nil, fmt.Errorf("policy %s: decode decision tree: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Checklist), &p.Checklist); err != nil {
		return nil, fmt.Errorf("policy %s: decode checklist: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Rules), &p.Rules); err != nil {
		return nil, fmt.Errorf("policy %s: decode rules: %w", r.ID, err)
	}
	return p, nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func (s *Store) Create(ctx context.Context, p *types.Policy) (*types.Policy, error) {
	stored := store.Prepare(p, s.now())
	row, err := toRow(stored)
	if err != nil {
		return nil, err
	}
	_, err = s.queries.Exec(ctx, "create-policy",
		row.ID, row.Title, row.InputText, row.Workflow, row.DecisionTree,
		row.Checklist, row.Rules, row.UserID, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}
	return stored, nil
}

func (s *Store) Get(ctx context.Context, id string) (*types.Policy, error) {
	var row policyRow
	if err := s.queries.Get(ctx, "get-policy", &row, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("get policy %s: %w", id, err)
	}
	return row.policy()
}

func (s *Store) List(ctx context.Context, ownerID string) ([]*types.Policy, error) {
	var rows []policyRow
	var err error
	if ownerID == "" {
		err = s.queries.Select(ctx, "list-policies", &rows)
	} else {
		err = s.queries.Select(ctx, "list-policies-by-user", &rows, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}

	out := make([]*types.Policy, 0, len(rows))
	for _, r := range rows {
		p, err := r.policy()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) UpdateChecklist(ctx context.Context, id string, checklist []types.ChecklistItem) error {
	if checklist == nil {
		checklist = []types.ChecklistItem{}
	}
	encoded, err := encode(checklist)
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}
	res, err := s.queries.Exec(ctx, "update-policy-checklist", encoded, id)
	if err != nil {
		return fmt.Errorf("update checklist %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update checklist %s: %w", id, err)
	}
	if n == 0 {
		return types.ErrPolicyNotFound
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}
