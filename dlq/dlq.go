// Package dlq implements the Dead-Letter Queue: a bounded, persisted
// record of Work that exhausted every recovery path (retry, circuit
// breaker, fallback) so operators can inspect and selectively replay it.
package dlq

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/workforge/workforge/observability"
)

// Entry is one dead-lettered unit of work. Work is stored as `any`
// because a single DLQ is shared across every job type in a workflow
// run — unlike Work[T] and Result[T,R] elsewhere, this boundary is
// inherently heterogeneous.
type Entry struct {
	ID        string
	Work      any
	Err       error
	Context   map[string]any
	Metadata  map[string]any
	Timestamp time.Time
}

// Persister durably records DLQ entries. Implementations must not block
// the caller indefinitely; Add invokes Persist under its own lock to
// preserve ordering with eviction.
type Persister interface {
	Persist(ctx context.Context, e Entry) error
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Handler observes entries after they have been persisted. A handler
// failure is isolated: it never prevents Add from succeeding or stops
// other handlers from running.
type Handler func(e Entry)

// Queue is a bounded, FIFO-ordered dead-letter queue. Once Capacity
// entries are held, adding another evicts the oldest.
type Queue struct {
	mu        sync.Mutex
	entries   []Entry
	capacity  int
	persister Persister
	handlers  []Handler
	observer  observability.Observer
}

// New creates a Queue bounded to capacity entries, backed by persister.
// A nil persister defaults to MemoryPersister{} (no-op).
func New(capacity int, persister Persister, observer observability.Observer) *Queue {
	if persister == nil {
		persister = MemoryPersister{}
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	if capacity <= 0 {
		capacity = 1000
	}
	return &Queue{capacity: capacity, persister: persister, observer: observer}
}

// OnAdd registers a handler invoked, outside the lock, after each
// successful Add.
func (q *Queue) OnAdd(h Handler) {
	q.mu.Lock()
	q.handlers = append(q.handlers, h)
	q.mu.Unlock()
}

// Add persists e and appends it to the queue, evicting the oldest entry
// first if at capacity. Handlers run after persistence, in registration
// order, outside the lock.
func (q *Queue) Add(ctx context.Context, e Entry) error {
	q.mu.Lock()
	if err := q.persister.Persist(ctx, e); err != nil {
		q.mu.Unlock()
		return err
	}

	var evicted *Entry
	if len(q.entries) >= q.capacity {
		ev := q.entries[0]
		evicted = &ev
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, e)
	handlers := append([]Handler{}, q.handlers...)
	q.mu.Unlock()

	if evicted != nil {
		_ = q.persister.Remove(ctx, evicted.ID)
		q.observer.OnEvent(ctx, observability.Event{
			Type: EventDLQEvicted, Level: observability.LevelWarning, Timestamp: time.Now(),
			Source: "dlq", Data: map[string]any{"id": evicted.ID},
		})
	}

	q.observer.OnEvent(ctx, observability.Event{
		Type: EventDLQAdded, Level: observability.LevelError, Timestamp: time.Now(),
		Source: "dlq", Data: map[string]any{"id": e.ID},
	})

	for _, h := range handlers {
		safeInvoke(h, e)
	}
	return nil
}

func safeInvoke(h Handler, e Entry) {
	defer func() { _ = recover() }()
	h(e)
}

// All returns a stable snapshot of every entry, oldest first.
func (q *Queue) All() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Entry{}, q.entries...)
}

// Filter returns every entry for which pred returns true.
func (q *Queue) Filter(pred func(Entry) bool) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Entry
	for _, e := range q.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// ByErrorKind filters entries whose Metadata["errorKind"] matches kind.
func (q *Queue) ByErrorKind(kind string) []Entry {
	return q.Filter(func(e Entry) bool {
		k, _ := e.Metadata["errorKind"].(string)
		return k == kind
	})
}

// ByTimeRange filters entries with Timestamp in [from, to].
func (q *Queue) ByTimeRange(from, to time.Time) []Entry {
	return q.Filter(func(e Entry) bool {
		return !e.Timestamp.Before(from) && !e.Timestamp.After(to)
	})
}

// RetryFn replays a dead-lettered entry's original work. It returns an
// error if the replay itself fails.
type RetryFn func(ctx context.Context, e Entry) error

// RetryEntry replays a single entry by ID via fn and, on success, removes
// it from the queue and its persister.
func (q *Queue) RetryEntry(ctx context.Context, id string, fn RetryFn) error {
	q.mu.Lock()
	idx := -1
	for i, e := range q.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		q.mu.Unlock()
		return ErrNotFound
	}
	entry := q.entries[idx]
	q.mu.Unlock()

	if err := fn(ctx, entry); err != nil {
		return err
	}

	q.mu.Lock()
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	q.mu.Unlock()
	return q.persister.Remove(ctx, id)
}

// RetryAll replays every current entry via fn, removing each that
// succeeds. It returns a combined error for every replay that failed, or
// nil if all succeeded.
func (q *Queue) RetryAll(ctx context.Context, fn RetryFn) error {
	var combined *multierror.Error
	for _, e := range q.All() {
		if err := q.RetryEntry(ctx, e.ID, fn); err != nil {
			combined = multierror.Append(combined, err)
		}
	}
	if combined != nil {
		return combined
	}
	return nil
}

// Clear removes every entry from the queue and its persister.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	q.entries = nil
	q.mu.Unlock()
	return q.persister.Clear(ctx)
}

// Stats summarizes the current queue contents by error kind.
type Stats struct {
	Total      int
	ByKind     map[string]int
	OldestTime time.Time
	NewestTime time.Time
}

// Stats computes a Stats snapshot of the current queue.
func (q *Queue) Stats() Stats {
	entries := q.All()
	stats := Stats{Total: len(entries), ByKind: map[string]int{}}
	if len(entries) == 0 {
		return stats
	}

	sorted := append([]Entry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	stats.OldestTime = sorted[0].Timestamp
	stats.NewestTime = sorted[len(sorted)-1].Timestamp

	for _, e := range entries {
		kind, _ := e.Metadata["errorKind"].(string)
		if kind == "" {
			kind = "unknown"
		}
		stats.ByKind[kind]++
	}
	return stats
}
