package breaker

import (
	"sync"

	"github.com/workforge/workforge/observability"
)

// Registry holds one Breaker per key, created lazily on first use, so
// jobs sharing a breakerKey share the same circuit state.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	cfg      Config
	observer observability.Observer
}

// NewRegistry creates a Registry that lazily constructs breakers using
// cfg and observer.
func NewRegistry(cfg Config, observer observability.Observer) *Registry {
	return &Registry{breakers: make(map[string]*Breaker), cfg: cfg, observer: observer}
}

// Get returns the Breaker for key, creating it with the Registry's
// default Config on first access.
func (r *Registry) Get(key string) *Breaker {
	return r.GetWithConfig(key, r.cfg)
}

// GetWithConfig returns the Breaker for key, creating it with cfg if it
// does not exist yet. An existing breaker's config is left as-is: the
// first caller to establish a shared key's breaker determines its
// config for the lifetime of the registry.
func (r *Registry) GetWithConfig(key string, cfg Config) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[key]; ok {
		return b
	}
	b := New(key, cfg, r.observer)
	r.breakers[key] = b
	return b
}

// Reset clears every breaker, dropping all accumulated state. Intended
// for test isolation and process-wide resets.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers = make(map[string]*Breaker)
}

// Len reports how many distinct keys have been registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.breakers)
}

var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Default returns the process-wide Registry, creating it on first use
// with DefaultConfig.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = NewRegistry(DefaultConfig(), observability.NoOpObserver{})
	}
	return defaultRegistry
}

// ResetDefault clears the process-wide Registry's breakers.
func ResetDefault() {
	Default().Reset()
}
