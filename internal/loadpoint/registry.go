package loadpoint

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry is an in-memory Store
type Registry struct {
	mu     sync.RWMutex
	points map[string]*LoadPoint
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{points: make(map[string]*LoadPoint)}
}

// Save stores a copy of lp
func (r *Registry) Save(_ context.Context, lp *LoadPoint) error {
	if lp.ID == "" {
		return fmt.Errorf("empty load point id")
	}
	c := lp.Clone()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.points[lp.ID] = c
	return nil
}

// Get returns a copy of the stored load point
func (r *Registry) Get(_ context.Context, id string) (*LoadPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lp, ok := r.points[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return lp.Clone(), nil
}

// List returns summaries sorted by id
func (r *Registry) List(_ context.Context) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.points))
	for _, lp := range r.points {
		out = append(out, lp.Summarize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes id
func (r *Registry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.points[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.points, id)
	return nil
}
