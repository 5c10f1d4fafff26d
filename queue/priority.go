package queue

import (
	"sync"
	"time"

	"github.com/workforge/workforge/work"
)

// Class ranks Work items for the priority queue variant, ordered highest
// first.
type Class int

const (
	ClassCritical Class = iota
	ClassHigh
	ClassNormal
	ClassLow
	ClassBackground
	numClasses
)

// String renders the class name.
func (c Class) String() string {
	switch c {
	case ClassCritical:
		return "critical"
	case ClassHigh:
		return "high"
	case ClassNormal:
		return "normal"
	case ClassLow:
		return "low"
	case ClassBackground:
		return "background"
	default:
		return "unknown"
	}
}

// promoted returns the next higher class, or c itself if already critical.
func (c Class) promoted() Class {
	if c == ClassCritical {
		return c
	}
	return c - 1
}

type classifiedItem[T any] struct {
	w        work.Work[T]
	class    Class
	enqueued time.Time
}

// PriorityQueue is a class-partitioned Work queue: PopOne always drains
// the highest non-empty class first, FIFO within a class. An item that
// has waited longer than PromoteAfter is bumped to the next higher class
// the next time the queue is touched, so low-priority work is never
// starved indefinitely behind a constant stream of high-priority work.
type PriorityQueue[T any] struct {
	mu           sync.Mutex
	buckets      [numClasses][]classifiedItem[T]
	closed       bool
	promoteAfter time.Duration
	now          func() time.Time
}

// NewPriority creates a PriorityQueue. promoteAfter <= 0 disables age
// promotion.
func NewPriority[T any](promoteAfter time.Duration) *PriorityQueue[T] {
	return &PriorityQueue[T]{promoteAfter: promoteAfter, now: time.Now}
}

// Push enqueues w under the given class.
func (q *PriorityQueue[T]) Push(w work.Work[T], class Class) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if class < ClassCritical || class >= numClasses {
		class = ClassNormal
	}
	q.buckets[class] = append(q.buckets[class], classifiedItem[T]{w: w, class: class, enqueued: q.now()})
	return nil
}

// PopOne promotes aged items, then removes and returns the oldest item
// from the highest non-empty class.
func (q *PriorityQueue[T]) PopOne() (work.Work[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.promoteLocked()

	for c := ClassCritical; c < numClasses; c++ {
		if len(q.buckets[c]) > 0 {
			item := q.buckets[c][0]
			q.buckets[c] = q.buckets[c][1:]
			return item.w, true
		}
	}
	return work.Work[T]{}, false
}

// PopBatch pops up to n items, class by class from highest to lowest.
func (q *PriorityQueue[T]) PopBatch(n int) []work.Work[T] {
	if n <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.promoteLocked()

	var batch []work.Work[T]
	for c := ClassCritical; c < numClasses && len(batch) < n; c++ {
		take := n - len(batch)
		if take > len(q.buckets[c]) {
			take = len(q.buckets[c])
		}
		for i := 0; i < take; i++ {
			batch = append(batch, q.buckets[c][i].w)
		}
		q.buckets[c] = q.buckets[c][take:]
	}
	return batch
}

// promoteLocked bumps any item older than promoteAfter to the next
// higher class. Called with mu held.
func (q *PriorityQueue[T]) promoteLocked() {
	if q.promoteAfter <= 0 {
		return
	}
	now := q.now()
	for c := ClassHigh; c < numClasses; c++ {
		remaining := q.buckets[c][:0]
		for _, item := range q.buckets[c] {
			if now.Sub(item.enqueued) > q.promoteAfter {
				target := item.class.promoted()
				item.class = target
				q.buckets[target] = append(q.buckets[target], item)
				continue
			}
			remaining = append(remaining, item)
		}
		q.buckets[c] = remaining
	}
}

// Size returns the total item count across all classes.
func (q *PriorityQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for c := range q.buckets {
		total += len(q.buckets[c])
	}
	return total
}

// Empty reports whether every class is empty.
func (q *PriorityQueue[T]) Empty() bool {
	return q.Size() == 0
}

// Close marks the queue closed; subsequent Push calls fail with
// ErrQueueClosed.
func (q *PriorityQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Closed reports whether Close has been called.
func (q *PriorityQueue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
