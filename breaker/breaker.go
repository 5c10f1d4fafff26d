// Package breaker implements the Circuit Breaker: a per-key state
// machine that stops calling a failing dependency until it has had time
// to recover.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/workforge/workforge/observability"
	"github.com/workforge/workforge/ratelimit"
)

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Do when the breaker rejects a call
// immediately without invoking the thunk.
var ErrCircuitOpen = errors.New("breaker: circuit open")

// Config configures a single breaker instance.
type Config struct {
	Threshold     int
	Timeout       time.Duration
	HalfOpenCalls int
	// HalfOpenLimiter, if set, additionally throttles how often a
	// half-open probe is admitted, independent of HalfOpenCalls'
	// concurrent-slot cap.
	HalfOpenLimiter *ratelimit.Limiter
}

// DefaultConfig returns conservative breaker settings.
func DefaultConfig() Config {
	return Config{Threshold: 5, Timeout: 30 * time.Second, HalfOpenCalls: 1}
}

// Breaker is a single circuit breaker instance. Construct with New;
// access is serialized by an internal mutex.
type Breaker struct {
	mu               sync.Mutex
	cfg              Config
	state            State
	failures         int
	successes        int
	lastFailure      time.Time
	halfOpenInFlight int
	observer         observability.Observer
	key              string
}

// New creates a closed Breaker under the given key (used only for
// observability).
func New(key string, cfg Config, observer observability.Observer) *Breaker {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 1
	}
	if cfg.HalfOpenCalls <= 0 {
		cfg.HalfOpenCalls = 1
	}
	return &Breaker{key: key, cfg: cfg, observer: observer}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked()
}

// currentStateLocked advances open->halfOpen once the timeout has
// elapsed, and returns the resulting state. Caller holds mu.
func (b *Breaker) currentStateLocked() State {
	if b.state == StateOpen && time.Since(b.lastFailure) >= b.cfg.Timeout {
		b.state = StateHalfOpen
		b.successes = 0
		b.halfOpenInFlight = 0
	}
	return b.state
}

// Thunk is the operation guarded by a Breaker.
type Thunk[R any] func(ctx context.Context) (R, error)

// Do executes thunk if the breaker currently permits it, and records the
// outcome against the state machine. It returns ErrCircuitOpen without
// calling thunk when the breaker is open, or when halfOpen and
// HalfOpenCalls trial slots are already in flight.
func Do[R any](ctx context.Context, b *Breaker, thunk Thunk[R]) (R, error) {
	var zero R

	b.mu.Lock()
	state := b.currentStateLocked()
	switch state {
	case StateOpen:
		b.mu.Unlock()
		return zero, ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenCalls || !b.cfg.HalfOpenLimiter.Allow() {
			b.mu.Unlock()
			return zero, ErrCircuitOpen
		}
		b.halfOpenInFlight++
	}
	b.mu.Unlock()

	value, err := thunk(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if state == StateHalfOpen {
		b.halfOpenInFlight--
	}

	if err != nil {
		b.onFailureLocked()
		return zero, err
	}
	b.onSuccessLocked(state)
	return value, nil
}

func (b *Breaker) onFailureLocked() {
	b.failures++
	b.lastFailure = time.Now()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.observer.OnEvent(context.Background(), observability.Event{
			Type: EventBreakerOpened, Level: observability.LevelWarning, Timestamp: time.Now(),
			Source: b.key, Data: map[string]any{"key": b.key, "from": "half_open"},
		})
		return
	}

	if b.state == StateClosed && b.failures >= b.cfg.Threshold {
		b.state = StateOpen
		b.observer.OnEvent(context.Background(), observability.Event{
			Type: EventBreakerOpened, Level: observability.LevelWarning, Timestamp: time.Now(),
			Source: b.key, Data: map[string]any{"key": b.key, "from": "closed", "failures": b.failures},
		})
	}
}

func (b *Breaker) onSuccessLocked(observedState State) {
	if observedState == StateHalfOpen {
		b.successes++
		if b.successes >= b.cfg.HalfOpenCalls {
			b.state = StateClosed
			b.failures = 0
			b.successes = 0
			b.observer.OnEvent(context.Background(), observability.Event{
				Type: EventBreakerClosed, Level: observability.LevelInfo, Timestamp: time.Now(),
				Source: b.key, Data: map[string]any{"key": b.key},
			})
		}
		return
	}
	b.failures = 0
}
