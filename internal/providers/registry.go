package providers

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the adapters available to the resolution engine.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry builds a registry containing the supplied providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.ID()] = p
		}
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	if r == nil || p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[p.ID()] = p
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Lookup resolves ids in order, failing on the first unknown id.
func (r *Registry) Lookup(ids []string) ([]Provider, error) {
	out := make([]Provider, 0, len(ids))
	for _, id := range ids {
		p, ok := r.Get(id)
		if !ok {
			return nil, fmt.Errorf("provider %q is not registered", id)
		}
		out = append(out, p)
	}
	return out, nil
}

// IDs lists registered provider IDs in sorted order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
