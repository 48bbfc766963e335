package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps backend names to backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates a registry holding the given backends.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds or replaces a backend under its Info().Name.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Info().Name] = b
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownBackend, name, r.namesLocked())
	}
	return b, nil
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
