package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dusk-indust/netdive/internal/deepdive"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu   sync.RWMutex
	runs map[string]*deepdive.State
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		runs: make(map[string]*deepdive.State),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// SaveRun stores a deep copy of the state keyed by run ID.
func (m *MemStore) SaveRun(_ context.Context, state *deepdive.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[state.RunID] = state.Clone()
	return nil
}

// LoadRun returns a deep copy of the saved state, or nil if not found.
func (m *MemStore) LoadRun(_ context.Context, runID string) (*deepdive.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	return st.Clone(), nil
}

// ListRuns returns summaries sorted by run ID for deterministic output.
func (m *MemStore) ListRuns(_ context.Context) ([]RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RunSummary, 0, len(m.runs))
	for _, st := range m.runs {
		out = append(out, summarize(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out, nil
}

// Stats counts runs, todos, and dependency links across the archive.
func (m *MemStore) Stats(_ context.Context) (*ArchiveStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &ArchiveStats{RunCount: len(m.runs)}
	for _, st := range m.runs {
		stats.TodoCount += len(st.Todos)
		for _, t := range st.Todos {
			switch t.Status {
			case deepdive.StatusCompleted:
				stats.CompletedTodos++
			case deepdive.StatusFailed:
				stats.FailedTodos++
			}
			stats.DepCount += len(t.Deps)
		}
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// summarize builds the one-row view of a run.
func summarize(st *deepdive.State) RunSummary {
	return RunSummary{
		RunID:     st.RunID,
		Objective: st.Objective,
		Phase:     string(st.Phase),
		Rounds:    st.Round + 1,
		TodoCount: len(st.Todos),
		Aborted:   st.Aborted,
	}
}
