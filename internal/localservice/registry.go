// Package localservice is the default collab.ServiceRegistry: a static,
// in-process table of named service factories, generalizing the teacher's
// ghost.Service builtin-seed registration (internal/ghost/service.go's
// BuiltinSeedIDs) from a fixed list of seed kinds to an arbitrary
// serviceType/groupName lookup.
package localservice

import (
	"fmt"
	"sync"

	"github.com/relaygrid/wiremux/internal/collab"
)

// Factory constructs a fresh collab.ServiceHandler for one accepted
// service-open negotiation. opts carries the peer's OptionMap, re-encoded
// to its raw TLV bytes.
type Factory func(groupName string, opts []byte) (collab.ServiceHandler, error)

// Registry is a static collab.ServiceRegistry keyed by service type.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds serviceType to factory. Intended to be called during
// startup, before the registry is handed to any engine.
func (r *Registry) Register(serviceType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[serviceType] = factory
}

// Open implements collab.ServiceRegistry.
func (r *Registry) Open(serviceType, groupName string, opts []byte) (collab.ServiceHandler, error) {
	r.mu.RLock()
	factory, ok := r.factories[serviceType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("localservice: unknown service type %q", serviceType)
	}
	return factory(groupName, opts)
}
