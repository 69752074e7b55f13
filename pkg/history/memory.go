package history

import (
	"context"
	"fmt"
	"sync"
)

// DefaultCapacity bounds a MemoryStore created with capacity zero.
const DefaultCapacity = 1000

// MemoryStore keeps the most recent runs in memory. Saving beyond capacity
// drops the oldest run.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	runs     map[string]*Run
}

// NewMemoryStore creates a store holding at most capacity runs.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity, runs: make(map[string]*Run)}
}

// Save implements Store. Saving an existing id replaces the run in place.
func (m *MemoryStore) Save(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("history: run without id")
	}
	cp := *run

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		m.order = append(m.order, run.ID)
		if len(m.order) > m.capacity {
			delete(m.runs, m.order[0])
			m.order = m.order[1:]
		}
	}
	m.runs[run.ID] = &cp
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *run
	return &cp, nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context, limit int) ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}
	out := make([]*Run, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.runs[m.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close(ctx context.Context) error { return nil }

// Len returns the number of stored runs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

var _ Store = (*MemoryStore)(nil)

// NopStore records nothing. It backs servers configured without history.
type NopStore struct{}

func (NopStore) Save(context.Context, *Run) error { return nil }

func (NopStore) Get(_ context.Context, id string) (*Run, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (NopStore) List(context.Context, int) ([]*Run, error) { return []*Run{}, nil }

func (NopStore) Close(context.Context) error { return nil }

var _ Store = NopStore{}
