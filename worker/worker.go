// Package worker defines the capability interface user code implements to
// process Work items inside a pool. A Worker must be safe to instantiate
// once per actor and invoked from a single goroutine only — the pool never
// calls a Worker's Process method from two goroutines concurrently.
package worker

import (
	"context"

	"github.com/workforge/workforge/work"
)

// Processor maps one Work item to one WorkResult. Implementations may
// panic or return an error; the hosting actor catches panics and wraps
// them into a WorkResult.Err so a misbehaving Worker never kills its
// actor goroutine.
type Processor[T, R any] interface {
	Process(ctx context.Context, w work.Work[T]) work.Result[T, R]
}

// ProcessorFunc adapts a plain function to the Processor interface, the
// same way http.HandlerFunc adapts a function to http.Handler.
type ProcessorFunc[T, R any] func(ctx context.Context, w work.Work[T]) work.Result[T, R]

// Process calls the wrapped function.
func (f ProcessorFunc[T, R]) Process(ctx context.Context, w work.Work[T]) work.Result[T, R] {
	return f(ctx, w)
}

// Factory constructs a fresh Processor instance, one per actor. Pools
// call Factory once per worker slot so that each actor owns private
// Worker state (e.g. a reusable buffer, a per-connection client).
type Factory[T, R any] func() Processor[T, R]
