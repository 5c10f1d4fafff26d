// Package aggregator collects WorkResults into ordered success/error
// sequences and fans them out to subscribers as they arrive.
package aggregator

import (
	"sync"

	"github.com/workforge/workforge/work"
)

// ResultSubscriber is notified of every successful Result, in the order
// Add was called.
type ResultSubscriber[T, R any] func(result work.Result[T, R])

// ErrorSubscriber is notified of every failed Result, in the order Add
// was called.
type ErrorSubscriber[T, R any] func(result work.Result[T, R])

// CompleteSubscriber is notified once, the first time Aggregator
// observes okCount+errCount reach total (see MarkTotal).
type CompleteSubscriber[T, R any] func(ok []work.Result[T, R], errs []work.Result[T, R])

// Aggregator appends incoming Results into an ok[] or err[] sequence by
// tag and notifies subscribers in registration order. All access is
// serialized by a single mutex; subscribers are invoked outside the lock
// so a slow or panicking subscriber cannot stall producers or take down
// the aggregator.
type Aggregator[T, R any] struct {
	mu   sync.Mutex
	ok   []work.Result[T, R]
	errs []work.Result[T, R]

	onResult   []ResultSubscriber[T, R]
	onError    []ErrorSubscriber[T, R]
	onComplete []CompleteSubscriber[T, R]

	total         int
	totalSet      bool
	completeFired bool
}

// New creates an empty Aggregator.
func New[T, R any]() *Aggregator[T, R] {
	return &Aggregator[T, R]{}
}

// OnNewResult registers a subscriber invoked for every successful Add.
func (a *Aggregator[T, R]) OnNewResult(sub ResultSubscriber[T, R]) {
	a.mu.Lock()
	a.onResult = append(a.onResult, sub)
	a.mu.Unlock()
}

// OnNewError registers a subscriber invoked for every failed Add.
func (a *Aggregator[T, R]) OnNewError(sub ErrorSubscriber[T, R]) {
	a.mu.Lock()
	a.onError = append(a.onError, sub)
	a.mu.Unlock()
}

// OnComplete registers a subscriber invoked once okCount+errCount reaches
// the total set via MarkTotal.
func (a *Aggregator[T, R]) OnComplete(sub CompleteSubscriber[T, R]) {
	a.mu.Lock()
	a.onComplete = append(a.onComplete, sub)
	a.mu.Unlock()
}

// MarkTotal sets the expected item count used to fire OnComplete
// subscribers. Call before or during adds; the first Add that brings the
// running count to total fires completion.
func (a *Aggregator[T, R]) MarkTotal(total int) {
	a.mu.Lock()
	a.total = total
	a.totalSet = true
	subs, ok, errs := a.maybeCompleteLocked()
	a.mu.Unlock()

	for _, sub := range subs {
		sub(ok, errs)
	}
}

// Add appends r to ok[] or err[] by r.IsOk, then notifies subscribers in
// registration order outside the lock.
func (a *Aggregator[T, R]) Add(r work.Result[T, R]) {
	a.mu.Lock()
	if r.IsOk() {
		a.ok = append(a.ok, r)
	} else {
		a.errs = append(a.errs, r)
	}
	resultSubs := append([]ResultSubscriber[T, R]{}, a.onResult...)
	errorSubs := append([]ErrorSubscriber[T, R]{}, a.onError...)
	completeSubs, completeOk, completeErrs := a.maybeCompleteLocked()
	a.mu.Unlock()

	if r.IsOk() {
		for _, sub := range resultSubs {
			sub(r)
		}
	} else {
		for _, sub := range errorSubs {
			sub(r)
		}
	}
	for _, sub := range completeSubs {
		sub(completeOk, completeErrs)
	}
}

// maybeCompleteLocked fires OnComplete subscribers exactly once, when the
// running total reaches the expected total. Called with mu held; it
// returns a snapshot for the caller to invoke after releasing the lock.
func (a *Aggregator[T, R]) maybeCompleteLocked() (subs []CompleteSubscriber[T, R], ok, errs []work.Result[T, R]) {
	if a.completeFired || !a.totalSet || len(a.ok)+len(a.errs) < a.total {
		return nil, nil, nil
	}
	a.completeFired = true
	return append([]CompleteSubscriber[T, R]{}, a.onComplete...),
		append([]work.Result[T, R]{}, a.ok...),
		append([]work.Result[T, R]{}, a.errs...)
}

// Results returns a stable snapshot of all successful results, in arrival
// order.
func (a *Aggregator[T, R]) Results() []work.Result[T, R] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]work.Result[T, R]{}, a.ok...)
}

// Errors returns a stable snapshot of all failed results, in arrival
// order.
func (a *Aggregator[T, R]) Errors() []work.Result[T, R] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]work.Result[T, R]{}, a.errs...)
}

// Counts returns the current success and error counts.
func (a *Aggregator[T, R]) Counts() (ok, errs int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ok), len(a.errs)
}
