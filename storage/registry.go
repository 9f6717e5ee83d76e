package storage

import (
	"fmt"
	"sync"

	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/observe"
)

// Factory constructs a store from configuration.
type Factory func(cfg *config.Config, logger observe.Logger) (Store, error)

// Registry maps plugin names to factories. Lookups copy out; the lock is
// never held across a factory call.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide plugin registry.
func Default() *Registry { return defaultRegistry }

// Register adds a factory under name, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates the plugin registered under name.
func (r *Registry) Create(name string, cfg *config.Config, logger observe.Logger) (Store, error) {
	r.mu.Lock()
	factory, ok := r.factories[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
	}
	return factory(cfg, logger)
}

// Reset drops every factory. Test fixtures use this between cases.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
}
