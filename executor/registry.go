package executor

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/workforge/workforge/worker"
)

// WorkerFactory constructs the Processor a job's supervised run uses.
// Job inputs and outputs are carried as `any` at this layer so one
// Registry can hold every worker type a workflow references, regardless
// of each worker's own concrete payload/result types.
type WorkerFactory = worker.Factory[any, any]

var (
	// ErrAlreadyRegistered is returned by Register for a worker type
	// that already has a factory.
	ErrAlreadyRegistered = errors.New("executor: worker type already registered")
	// ErrNotRegistered is returned when a job names an unregistered
	// worker type.
	ErrNotRegistered = errors.New("executor: worker type not registered")
)

// Registry maps worker type names to the factories that construct their
// Processors, one instance per Supervisor-spawned actor.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]WorkerFactory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]WorkerFactory)}
}

// Register adds a factory for workerType. Returns ErrAlreadyRegistered
// if one is already registered; use Replace to overwrite intentionally.
func (r *Registry) Register(workerType string, f WorkerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[workerType]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, workerType)
	}
	r.factories[workerType] = f
	return nil
}

// Replace registers a factory for workerType unconditionally, whether
// or not one was already present.
func (r *Registry) Replace(workerType string, f WorkerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[workerType] = f
}

// Get returns the factory for workerType, if registered.
func (r *Registry) Get(workerType string) (WorkerFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[workerType]
	return f, ok
}

// List returns every registered worker type name, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
