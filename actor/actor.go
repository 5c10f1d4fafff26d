// Package actor hosts one isolated Worker instance per goroutine (the
// spec's "Wrapped Worker Actor"). An actor owns its Worker exclusively:
// all communication in and out crosses two channels, never a shared
// reference, so the pool never needs to lock around Worker state.
package actor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/workforge/workforge/observability"
	"github.com/workforge/workforge/work"
	"github.com/workforge/workforge/worker"
)

// State is the actor lifecycle: starting -> idle -> busy -> idle -> ... -> closed.
type State int32

const (
	StateStarting State = iota
	StateIdle
	StateBusy
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// InboundKind discriminates the two messages an actor accepts.
type InboundKind int

const (
	InboundWork InboundKind = iota
	InboundShutdown
)

// Inbound is a message sent to an actor: either a unit of Work to process
// or a request to shut down.
type Inbound[T any] struct {
	Kind InboundKind
	Work work.Work[T]
}

// WorkMessage wraps a Work item as an inbound message.
func WorkMessage[T any](w work.Work[T]) Inbound[T] {
	return Inbound[T]{Kind: InboundWork, Work: w}
}

// ShutdownMessage requests the actor to finish in-flight work and exit.
func ShutdownMessage[T any]() Inbound[T] {
	return Inbound[T]{Kind: InboundShutdown}
}

// OutboundKind discriminates the three messages an actor emits.
type OutboundKind int

const (
	OutboundInitialized OutboundKind = iota
	OutboundResult
	OutboundClosed
)

// Outbound is a message an actor emits, tagged with the emitting actor's
// name so a Supervisor can route it back to the Work Distribution Manager.
type Outbound[T, R any] struct {
	Kind      OutboundKind
	ActorName string
	Result    work.Result[T, R]
}

// ErrorKindWorkerFailure classifies a WorkResult produced when user code
// inside Process returned an error or panicked.
const ErrorKindWorkerFailure = "WorkerFailure"

// Actor hosts a single Worker instance. Construct with New, then run it
// with Run in its own goroutine: `go a.Run(ctx)`.
type Actor[T, R any] struct {
	name      string
	processor worker.Processor[T, R]
	inbound   *Channel[Inbound[T]]
	outbound  *Channel[Outbound[T, R]]
	observer  observability.Observer
	state     atomic.Int32
}

// New creates an Actor with the given name and Worker instance. inbound
// and outbound capacities should be >= 1 so the actor never deadlocks
// against a slow-to-drain owner.
func New[T, R any](name string, processor worker.Processor[T, R], inboundCap, outboundCap int, observer observability.Observer) *Actor[T, R] {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Actor[T, R]{
		name:      name,
		processor: processor,
		inbound:   NewChannel[Inbound[T]](context.Background(), inboundCap),
		outbound:  NewChannel[Outbound[T, R]](context.Background(), outboundCap),
		observer:  observer,
	}
}

// Name returns the actor's identity.
func (a *Actor[T, R]) Name() string { return a.name }

// State returns the actor's current lifecycle state.
func (a *Actor[T, R]) State() State { return State(a.state.Load()) }

// Outbound returns the channel of messages this actor emits.
func (a *Actor[T, R]) Outbound() *Channel[Outbound[T, R]] { return a.outbound }

// Send delivers a message to the actor's inbound channel.
func (a *Actor[T, R]) Send(ctx context.Context, msg Inbound[T]) error {
	return a.inbound.Send(ctx, msg)
}

// Run is the actor's main loop: emit Initialized, then repeatedly receive
// a message, process Work or handle Shutdown, and emit the corresponding
// outbound message. Run returns when it receives Shutdown or ctx is done.
//
// Ordering invariant: because a single goroutine executes this loop,
// outbound messages are emitted in exactly the order inbound messages
// were received.
func (a *Actor[T, R]) Run(ctx context.Context) {
	a.state.Store(int32(StateIdle))
	a.emitInitialized(ctx)

	for {
		msg, err := a.inbound.Receive(ctx)
		if err != nil {
			a.close(ctx)
			return
		}

		switch msg.Kind {
		case InboundShutdown:
			a.close(ctx)
			return
		case InboundWork:
			a.handleWork(ctx, msg.Work)
		}
	}
}

func (a *Actor[T, R]) handleWork(ctx context.Context, w work.Work[T]) {
	a.state.Store(int32(StateBusy))

	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventActorWorkStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    a.name,
		Data:      map[string]any{"actor": a.name, "work_id": w.ID()},
	})

	result := a.process(ctx, w)

	a.state.Store(int32(StateIdle))

	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventActorWorkComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    a.name,
		Data: map[string]any{
			"actor":   a.name,
			"work_id": w.ID(),
			"error":   !result.IsOk(),
		},
	})

	_ = a.outbound.Send(ctx, Outbound[T, R]{Kind: OutboundResult, ActorName: a.name, Result: result})
}

// process invokes the Worker, recovering any panic into a Result.Err so
// that user code can never crash the actor goroutine.
func (a *Actor[T, R]) process(ctx context.Context, w work.Work[T]) (result work.Result[T, R]) {
	defer func() {
		if r := recover(); r != nil {
			result = work.Err[T, R](w.Payload(), ErrorKindWorkerFailure, work.SeverityCritical,
				fmt.Errorf("worker %q panicked: %v", a.name, r)).
				WithContext(map[string]any{"actor": a.name, "work_id": w.ID()})
		}
	}()

	result = a.processor.Process(ctx, w)
	if result.Err != nil && result.ErrorKind == "" {
		result.ErrorKind = ErrorKindWorkerFailure
	}
	return result
}

func (a *Actor[T, R]) emitInitialized(ctx context.Context) {
	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventActorInitialized,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    a.name,
		Data:      map[string]any{"actor": a.name},
	})
	_ = a.outbound.Send(context.Background(), Outbound[T, R]{Kind: OutboundInitialized, ActorName: a.name})
}

func (a *Actor[T, R]) close(ctx context.Context) {
	a.state.Store(int32(StateClosed))
	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventActorClosed,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    a.name,
		Data:      map[string]any{"actor": a.name},
	})
	_ = a.outbound.Send(context.Background(), Outbound[T, R]{Kind: OutboundClosed, ActorName: a.name})
}
