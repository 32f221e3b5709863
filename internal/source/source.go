// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source defines the product source adapter contract and the
// registry that owns the configured adapters.
package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// Adapter answers search queries for one product source: the local
// catalog or a remote retail back-end. Implementations must honor ctx
// cancellation.
type Adapter interface {
	// ID returns the stable source identifier used in records and errors.
	ID() string

	// Name returns the human-readable source name.
	Name() string

	// Query returns the source's matching records for q. Adapters apply
	// q.Filters to their own output before returning.
	Query(ctx context.Context, q types.SearchQuery) ([]types.ProductRecord, error)
}

// Status describes one registered adapter for listings.
type Status struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Registry holds the ordered set of source adapters. Registration order is
// dispatch order: the local catalog registers first so it wins dedup ties
// against remote sources. The registry does no health checking; adapters
// are assumed available until they fail at call time.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
}

type entry struct {
	adapter Adapter
	enabled bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an adapter in dispatch order.
func (r *Registry) Register(a Adapter, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &entry{adapter: a, enabled: enabled})
}

// ListEnabled returns the enabled adapters in registration order.
func (r *Registry) ListEnabled() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Adapter
	for _, e := range r.entries {
		if e.enabled {
			out = append(out, e.adapter)
		}
	}
	return out
}

// List returns the status of every registered adapter in registration order.
func (r *Registry) List() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Status{ID: e.adapter.ID(), Name: e.adapter.Name(), Enabled: e.enabled})
	}
	return out
}

// Enable marks the adapter with the given id as dispatchable.
func (r *Registry) Enable(id string) error {
	return r.setEnabled(id, true)
}

// Disable removes the adapter with the given id from dispatch.
func (r *Registry) Disable(id string) error {
	return r.setEnabled(id, false)
}

func (r *Registry) setEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.adapter.ID() == id {
			e.enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("unknown source %q", id)
}
