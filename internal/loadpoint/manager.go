package loadpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/network"
)

// Manager keeps a Store and a network graph in step: a load point exists in both or neither
type Manager struct {
	store Store
	net   *network.Graph
}

// NewManager wraps store and net. A nil net manages load points without topology.
func NewManager(store Store, net *network.Graph) *Manager {
	return &Manager{store: store, net: net}
}

// Store returns the underlying store
func (m *Manager) Store() Store {
	return m.store
}

// Network returns a copy of the current topology, or nil
func (m *Manager) Network() *network.Graph {
	if m.net == nil {
		return nil
	}
	return m.net.Clone()
}

// Add attaches a new load point below lp.ParentID and stores it
func (m *Manager) Add(ctx context.Context, lp *LoadPoint) error {
	if _, err := m.store.Get(ctx, lp.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, lp.ID)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if m.net != nil {
		if err := m.net.AddNode(lp.ID, lp.ParentID); err != nil {
			return err
		}
	}
	if err := m.store.Save(ctx, lp); err != nil {
		if m.net != nil {
			_ = m.net.RemoveNode(lp.ID)
		}
		return err
	}
	return nil
}

// Remove deletes the load point and its network node
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	if m.net != nil && m.net.Has(id) {
		return m.net.RemoveNode(id)
	}
	return nil
}

// Copy stores a deep copy of src as dst below parent
func (m *Manager) Copy(ctx context.Context, src, dst, parent string) (*LoadPoint, error) {
	lp, err := m.store.Get(ctx, src)
	if err != nil {
		return nil, err
	}
	cp := lp.Clone()
	cp.ID = dst
	cp.ParentID = parent
	cp.UpdatedAt = time.Now()
	if err := m.Add(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// Update replaces the series of id with fn(series)
func (m *Manager) Update(ctx context.Context, id string, fn func(contracts.HourlySeries) (contracts.HourlySeries, error)) (*LoadPoint, error) {
	lp, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	series, err := fn(lp.Series)
	if err != nil {
		return nil, err
	}
	lp.Series = series
	lp.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, lp); err != nil {
		return nil, err
	}
	return lp, nil
}

// Aggregate sums the load of every stored load point in the subtree rooted at node
func (m *Manager) Aggregate(ctx context.Context, node string) (contracts.HourlySeries, int, error) {
	if m.net == nil {
		return nil, 0, fmt.Errorf("aggregate %s: no network loaded", node)
	}
	if !m.net.Has(node) {
		return nil, 0, fmt.Errorf("%w: %s", network.ErrUnknownNode, node)
	}

	var parts []contracts.HourlySeries
	for _, id := range m.net.Subtree(node) {
		lp, err := m.store.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		parts = append(parts, lp.Series)
	}
	return Sum(parts...), len(parts), nil
}
