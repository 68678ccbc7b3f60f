package runs

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps runs in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// Save stores a copy of run
func (s *MemoryStore) Save(_ context.Context, run *Run) error {
	cp := *run
	cp.Synthetic = run.Synthetic.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = &cp
	return nil
}

// Get returns a copy of the run
func (s *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *run
	cp.Synthetic = run.Synthetic.Clone()
	return &cp, nil
}

// ListByLoadPoint returns the newest runs first, without series
func (s *MemoryStore) ListByLoadPoint(_ context.Context, loadPointID string, limit int) ([]Run, error) {
	s.mu.RLock()
	var out []Run
	for _, run := range s.runs {
		if run.LoadPointID == loadPointID {
			cp := *run
			cp.Synthetic = nil
			out = append(out, cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
