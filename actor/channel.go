package actor

import (
	"context"
	"sync/atomic"
)

// Channel is a context-aware, closeable wrapper around a buffered Go
// channel. It is the transport every actor's inbound and outbound queues
// are built from: Send and Receive respect both the caller's context and
// the channel owner's lifetime context, so a blocked send or receive never
// outlives either.
type Channel[T any] struct {
	ch         chan T
	ctx        context.Context
	bufferSize int
	closed     atomic.Int32
}

// NewChannel creates a Channel with the given buffer size, bound to ctx.
// Once ctx is done, pending and future Send/Receive calls return ctx.Err().
func NewChannel[T any](ctx context.Context, bufferSize int) *Channel[T] {
	return &Channel[T]{
		ch:         make(chan T, bufferSize),
		ctx:        ctx,
		bufferSize: bufferSize,
	}
}

// Send delivers a value, blocking until there's room or either context is
// done.
func (c *Channel[T]) Send(ctx context.Context, v T) error {
	select {
	case c.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// Receive blocks for the next value, or returns an error when either
// context is done.
func (c *Channel[T]) Receive(ctx context.Context) (T, error) {
	select {
	case v, ok := <-c.ch:
		if !ok {
			var zero T
			return zero, context.Canceled
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-c.ctx.Done():
		var zero T
		return zero, c.ctx.Err()
	}
}

// TryReceive performs a non-blocking receive.
func (c *Channel[T]) TryReceive() (T, bool) {
	select {
	case v, ok := <-c.ch:
		if !ok {
			var zero T
			return zero, false
		}
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Close closes the underlying channel at most once; subsequent calls are
// no-ops.
func (c *Channel[T]) Close() {
	if c.closed.CompareAndSwap(0, 1) {
		close(c.ch)
	}
}

// IsClosed reports whether Close has been called.
func (c *Channel[T]) IsClosed() bool { return c.closed.Load() == 1 }

// Len returns the number of values currently buffered.
func (c *Channel[T]) Len() int { return len(c.ch) }
