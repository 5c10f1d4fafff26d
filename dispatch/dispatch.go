// Package dispatch implements the Work Distribution Manager: it tracks
// which worker actors are idle and pairs them with queued Work in
// round-robin order.
package dispatch

import (
	"context"
	"sync"

	"github.com/workforge/workforge/actor"
)

// Handle is the subset of actor.Actor the dispatcher needs: the ability
// to identify and send work to an actor without depending on its
// payload/result type parameters.
type Handle interface {
	Name() string
	Send(ctx context.Context, msg any) error
}

// actorHandle adapts a typed *actor.Actor[T, R] to Handle.
type actorHandle[T, R any] struct {
	a *actor.Actor[T, R]
}

func (h actorHandle[T, R]) Name() string { return h.a.Name() }

func (h actorHandle[T, R]) Send(ctx context.Context, msg any) error {
	inbound, ok := msg.(actor.Inbound[T])
	if !ok {
		return errUnexpectedMessage
	}
	return h.a.Send(ctx, inbound)
}

// NewHandle wraps a typed actor as a Handle for registration with a
// Manager.
func NewHandle[T, R any](a *actor.Actor[T, R]) Handle {
	return actorHandle[T, R]{a: a}
}

// Manager tracks idle actor handles and dispatches queued Work to them
// in round-robin order. Safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	idle []Handle
	next int
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{}
}

// MarkIdle records an actor as available to receive work. Safe to call
// repeatedly for the same handle; it is appended at most once until
// dispatched again.
func (m *Manager) MarkIdle(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.idle {
		if existing.Name() == h.Name() {
			return
		}
	}
	m.idle = append(m.idle, h)
}

// MarkBusy removes an actor from the idle set, e.g. once work has been
// handed to it directly by the caller.
func (m *Manager) MarkBusy(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(name)
}

// IdleCount returns the number of actors currently marked idle.
func (m *Manager) IdleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.idle)
}

// Dispatch pairs one idle actor with one popped Work item, repeatedly,
// until either the idle set or the queue is exhausted. popOne pops a
// single work item in an actor-agnostic form (a closure so Manager stays
// independent of Work's payload type); it returns ok=false when the
// queue has nothing left. send delivers the popped item to the chosen
// actor.
//
// Fairness: actors are tried in round-robin order starting just after
// the last actor dispatched to, so no actor is starved while the queue
// is non-empty and other actors are idle.
func (m *Manager) Dispatch(ctx context.Context, popOne func() (any, bool), send func(h Handle, item any) error) int {
	dispatched := 0
	for {
		m.mu.Lock()
		if len(m.idle) == 0 {
			m.mu.Unlock()
			return dispatched
		}
		idx := m.next % len(m.idle)
		h := m.idle[idx]
		m.mu.Unlock()

		item, ok := popOne()
		if !ok {
			return dispatched
		}

		if err := send(h, item); err != nil {
			continue
		}

		m.mu.Lock()
		m.removeLocked(h.Name())
		m.next = idx
		m.mu.Unlock()

		dispatched++
	}
}

func (m *Manager) removeLocked(name string) {
	for i, h := range m.idle {
		if h.Name() == name {
			m.idle = append(m.idle[:i], m.idle[i+1:]...)
			return
		}
	}
}

var errUnexpectedMessage = dispatchError("dispatch: message does not match actor's payload type")

type dispatchError string

func (e dispatchError) Error() string { return string(e) }
