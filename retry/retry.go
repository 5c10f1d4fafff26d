// Package retry implements the Retry Orchestrator: it wraps a thunk with
// a backoff policy and replays it on failure until it succeeds, the
// policy is exhausted, or a deadline is reached.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/workforge/workforge/observability"
)

// Strategy selects the backoff shape between attempts.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyConstant
	StrategyLinear
	StrategyExponential
)

// Policy configures retry behavior. The zero value is StrategyNone with
// MaxAttempts 1, i.e. no retries.
type Policy struct {
	MaxAttempts int
	Strategy    Strategy

	// Constant
	ConstantDelay time.Duration

	// Linear: delay(attempt) = min(Init + Inc*(attempt-1), Max) when Max > 0.
	LinearInit time.Duration
	LinearInc  time.Duration
	LinearMax  time.Duration

	// Exponential: delay(attempt) = min(Init * Mult^(attempt-1), Max),
	// optionally jittered uniformly over [0, delay].
	ExpInit   time.Duration
	ExpMult   float64
	ExpMax    time.Duration
	ExpJitter bool

	// Timeout caps total elapsed wall time across all attempts. Zero
	// disables the cap.
	Timeout time.Duration

	// RetryableErrorKinds restricts retries to errors whose Kind() (see
	// KindedError) matches one of these. Empty means retry any error.
	RetryableErrorKinds []string
}

// DefaultPolicy returns a single-attempt, no-retry policy.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 1, Strategy: StrategyNone}
}

// KindedError lets an error classify itself for RetryableErrorKinds
// matching. work.Result.ErrorKind values implement this by convention
// via KindError.
type KindedError interface {
	error
	Kind() string
}

// KindError wraps a plain error with a retry-matchable kind string.
type KindError struct {
	kind string
	err  error
}

// NewKindError attaches a kind to err for retryable-kind matching.
func NewKindError(kind string, err error) KindError {
	return KindError{kind: kind, err: err}
}

func (e KindError) Error() string { return e.err.Error() }
func (e KindError) Unwrap() error { return e.err }
func (e KindError) Kind() string  { return e.kind }

// ErrExhausted is returned (wrapped) when a Policy's attempts or timeout
// are exhausted without success.
var ErrExhausted = errors.New("retry: exhausted")

// Attempt records one failed try.
type Attempt struct {
	Index     int
	Err       error
	Timestamp time.Time
}

// Outcome carries everything the spec requires back to the caller: how
// many attempts ran, how long it took, and every intermediate error.
type Outcome struct {
	Attempts     int
	TotalElapsed time.Duration
	Errors       []Attempt

	// AllErrors combines every intermediate error into one, for callers
	// (e.g. DLQ entries) that want a single inspectable error value.
	AllErrors *multierror.Error
}

// ExhaustedError is returned when Do never succeeds.
type ExhaustedError struct {
	Outcome Outcome
}

func (e *ExhaustedError) Error() string {
	if e.Outcome.AllErrors != nil {
		return fmt.Sprintf("retry: exhausted after %d attempts: %s", e.Outcome.Attempts, e.Outcome.AllErrors.Error())
	}
	return fmt.Sprintf("retry: exhausted after %d attempts", e.Outcome.Attempts)
}

func (e *ExhaustedError) Unwrap() error { return ErrExhausted }

// Thunk is the operation retried by Do.
type Thunk[R any] func(ctx context.Context) (R, error)

// Do executes thunk under policy p, retrying on failure per the
// configured strategy. It returns the first successful value, or an
// *ExhaustedError carrying every intermediate attempt once attempts or
// the timeout are exhausted.
func Do[R any](ctx context.Context, p Policy, observer observability.Observer, thunk Thunk[R]) (R, *Outcome, error) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	start := time.Now()
	var attempts []Attempt
	var combined *multierror.Error

	for attempt := 1; ; attempt++ {
		if p.Timeout > 0 && time.Since(start) >= p.Timeout {
			break
		}

		value, err := thunk(ctx)
		if err == nil {
			observer.OnEvent(ctx, observability.Event{
				Type:      EventRetrySucceeded,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "retry",
				Data:      map[string]any{"attempts": attempt},
			})
			return value, &Outcome{Attempts: attempt, TotalElapsed: time.Since(start), Errors: attempts, AllErrors: combined}, nil
		}

		attempts = append(attempts, Attempt{Index: attempt, Err: err, Timestamp: time.Now()})
		combined = multierror.Append(combined, err)

		observer.OnEvent(ctx, observability.Event{
			Type:      EventRetryAttemptFailed,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "retry",
			Data:      map[string]any{"attempt": attempt, "error": err.Error()},
		})

		if attempt >= p.MaxAttempts || !retryable(p, err) {
			break
		}
		if p.Timeout > 0 && time.Since(start) >= p.Timeout {
			break
		}

		delay := p.delay(attempt)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				attempts = append(attempts, Attempt{Index: attempt + 1, Err: ctx.Err(), Timestamp: time.Now()})
				combined = multierror.Append(combined, ctx.Err())
				var zero R
				outcome := &Outcome{Attempts: attempt, TotalElapsed: time.Since(start), Errors: attempts, AllErrors: combined}
				return zero, outcome, &ExhaustedError{Outcome: *outcome}
			}
		}
	}

	var zero R
	outcome := &Outcome{Attempts: len(attempts), TotalElapsed: time.Since(start), Errors: attempts, AllErrors: combined}
	observer.OnEvent(ctx, observability.Event{
		Type:      EventRetryExhausted,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "retry",
		Data:      map[string]any{"attempts": outcome.Attempts},
	})
	return zero, outcome, &ExhaustedError{Outcome: *outcome}
}

func retryable(p Policy, err error) bool {
	if len(p.RetryableErrorKinds) == 0 {
		return true
	}
	var ke KindedError
	if !errors.As(err, &ke) {
		return false
	}
	for _, k := range p.RetryableErrorKinds {
		if k == ke.Kind() {
			return true
		}
	}
	return false
}

// delay computes the backoff for the given (1-indexed) attempt about to
// be retried.
func (p Policy) delay(attempt int) time.Duration {
	switch p.Strategy {
	case StrategyConstant:
		return p.ConstantDelay
	case StrategyLinear:
		d := p.LinearInit + p.LinearInc*time.Duration(attempt-1)
		if p.LinearMax > 0 && d > p.LinearMax {
			d = p.LinearMax
		}
		return d
	case StrategyExponential:
		mult := p.ExpMult
		if mult <= 0 {
			mult = 2
		}
		d := time.Duration(float64(p.ExpInit) * math.Pow(mult, float64(attempt-1)))
		if p.ExpMax > 0 && d > p.ExpMax {
			d = p.ExpMax
		}
		if p.ExpJitter && d > 0 {
			d = time.Duration(rand.Int63n(int64(d) + 1))
		}
		return d
	default:
		return 0
	}
}
