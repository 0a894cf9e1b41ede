package definitions

import (
	"context"
	"sync"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// MemorySource is an in-memory Source keeping definitions in insertion order.
// Search uses DefaultSearch.
type MemorySource struct {
	label string

	mu    sync.RWMutex
	defs  []*types.Definition
	index map[types.ID]int
}

var _ Source = (*MemorySource)(nil)

// NewMemorySource creates a source holding the given definitions. A later
// definition with a repeated ID replaces the earlier one in place.
func NewMemorySource(label string, defs ...*types.Definition) *MemorySource {
	m := &MemorySource{label: label, index: make(map[types.ID]int)}
	for _, def := range defs {
		m.Add(def)
	}
	return m
}

// Add inserts or replaces a definition
func (m *MemorySource) Add(def *types.Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.index[def.ID]; ok {
		m.defs[i] = def
		return
	}
	m.index[def.ID] = len(m.defs)
	m.defs = append(m.defs, def)
}

func (m *MemorySource) Label() string { return m.label }

func (m *MemorySource) List(_ context.Context) ([]types.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]types.Summary, 0, len(m.defs))
	for _, def := range m.defs {
		summaries = append(summaries, def.Summary())
	}
	return summaries, nil
}

func (m *MemorySource) Search(ctx context.Context, query string) ([]types.Summary, error) {
	return DefaultSearch(ctx, m, query)
}

func (m *MemorySource) Fetch(_ context.Context, id types.ID) (*types.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return nil, &types.NotFoundError{ID: id}
	}
	def := *m.defs[i]
	return &def, nil
}
