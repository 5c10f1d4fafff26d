// Package work defines the immutable input and outcome types that flow
// through a worker pool: Work carries a user payload in, Result carries a
// value or error back out.
package work

import "time"

// Work is an immutable unit of input for a single worker invocation.
// Identity is by the ID field, assigned once at construction — never by
// pointer equality, so Work can cross goroutine and (de)serialization
// boundaries without losing its identity.
type Work[T any] struct {
	id            string
	correlationID string
	payload       T
	createdAt     time.Time
}

// New wraps a payload as Work, assigning it the given id. Callers that
// don't care about a stable id can use a counter or uuid.NewString(); the
// queue and aggregator never interpret the id beyond equality checks.
func New[T any](id string, payload T) Work[T] {
	return Work[T]{id: id, payload: payload, createdAt: time.Now()}
}

// WithCorrelationID returns a copy of the Work tagged with a workflow
// correlation id, readable through CorrelationID.
func (w Work[T]) WithCorrelationID(id string) Work[T] {
	w.correlationID = id
	return w
}

// ID returns the identity assigned at construction.
func (w Work[T]) ID() string { return w.id }

// CorrelationID returns the workflow correlation id, or "" if unset.
func (w Work[T]) CorrelationID() string { return w.correlationID }

// Payload returns the user-supplied input.
func (w Work[T]) Payload() T { return w.payload }

// CreatedAt returns when this Work was constructed.
func (w Work[T]) CreatedAt() time.Time { return w.createdAt }

// Severity classifies a WorkResult.Err outcome. Ordering for reporting
// purposes is Critical > Error > Warning > Info.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String renders the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of processing one Work item: exactly one of
// the value (on success) or the error fields is meaningful, discriminated
// by Err == nil.
type Result[T, R any] struct {
	WorkRef T

	// Value is populated on success.
	Value R

	// Err is populated on failure.
	Err error

	// ErrorKind classifies Err for retry/breaker matching. Empty on success.
	ErrorKind string

	// Severity classifies the failure. Zero value (SeverityInfo) on success.
	Severity Severity

	// Context carries open diagnostic fields (worker name, attempt index, …).
	Context map[string]any
}

// Ok builds a successful Result.
func Ok[T, R any](workRef T, value R) Result[T, R] {
	return Result[T, R]{WorkRef: workRef, Value: value}
}

// Err builds a failed Result.
func Err[T, R any](workRef T, kind string, severity Severity, err error) Result[T, R] {
	return Result[T, R]{WorkRef: workRef, Err: err, ErrorKind: kind, Severity: severity}
}

// WithContext attaches diagnostic fields and returns the updated Result.
func (r Result[T, R]) WithContext(fields map[string]any) Result[T, R] {
	r.Context = fields
	return r
}

// IsOk reports whether this Result represents success.
func (r Result[T, R]) IsOk() bool { return r.Err == nil }
