package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chargecost/chargecost/pkg/types"
)

// MemoryProvider implements the Database interface in process memory. It
// backs tests and single-process serving where Firestore isn't wanted.
type MemoryProvider struct {
	mu   sync.RWMutex
	runs map[string]types.Run
}

// NewMemoryProvider returns an empty in-memory store.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{runs: make(map[string]types.Run)}
}

// SaveRun stores the run, replacing any run with the same ID.
func (m *MemoryProvider) SaveRun(ctx context.Context, run types.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// GetRun retrieves a run by ID.
func (m *MemoryProvider) GetRun(ctx context.Context, id string) (types.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return types.Run{}, ErrRunNotFound
	}
	return run, nil
}

// GetLatestRun retrieves the most recently started run.
func (m *MemoryProvider) GetLatestRun(ctx context.Context) (types.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest types.Run
	found := false
	for _, run := range m.runs {
		if !found || run.Started.After(latest.Started) {
			latest = run
			found = true
		}
	}
	if !found {
		return types.Run{}, ErrRunNotFound
	}
	return latest, nil
}

// ListRuns retrieves up to limit runs, most recently started first.
func (m *MemoryProvider) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	m.mu.RLock()
	runs := make([]types.Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Started.After(runs[j].Started)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryProvider) Close() error {
	return nil
}
