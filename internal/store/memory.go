package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/solatis/policykeeper/internal/types"
)

// Memory is a PolicyStore held in process memory. Stored and returned
// policies are copies.
type Memory struct {
	mu       sync.RWMutex
	policies map[string]*types.Policy
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{policies: make(map[string]*types.Policy), now: time.Now}
}

func (m *Memory) Create(_ context.Context, p *types.Policy) (*types.Policy, error) {
	stored := Prepare(p, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.policies[stored.ID]; exists {
		return nil, types.InvalidInput("policy %q already exists", stored.ID)
	}
	m.policies[stored.ID] = stored
	return Clone(stored), nil
}

func (m *Memory) Get(_ context.Context, id string) (*types.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[id]
	if !ok {
		return nil, types.ErrPolicyNotFound
	}
	return Clone(p), nil
}

func (m *Memory) List(_ context.Context, ownerID string) ([]*types.Policy, error) {
	m.mu.RLock()
	out := make([]*types.Policy, 0, len(m.policies))
	for _, p := range m.policies {
		if ownerID == "" || p.UserID == ownerID {
			out = append(out, Clone(p))
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateChecklist(_ context.Context, id string, checklist []types.ChecklistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[id]
	if !ok {
		return types.ErrPolicyNotFound
	}
	p.Checklist = cloneSlice(checklist)
	if p.Checklist == nil {
		p.Checklist = []types.ChecklistItem{}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
