package config

import (
	"time"

	"github.com/workforge/workforge/queue"
	"github.com/workforge/workforge/supervisor"
	"github.com/workforge/workforge/work"
)

// QueueConfig selects between the plain FIFO queue and the
// priority-class queue, and tunes the latter's age-promotion.
type QueueConfig struct {
	Priority     bool          `json:"priority"`
	PromoteAfter time.Duration `json:"promote_after"`
}

// DefaultQueueConfig returns a plain FIFO queue configuration.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{Priority: false, PromoteAfter: 0}
}

func (c *QueueConfig) Merge(source QueueConfig) {
	if source.Priority {
		c.Priority = source.Priority
	}
	if source.PromoteAfter > 0 {
		c.PromoteAfter = source.PromoteAfter
	}
}

// BuildQueue resolves c into the supervisor.Queue implementation it
// selects. T must match the Supervisor's work payload type.
func BuildQueue[T any](c QueueConfig) supervisor.Queue[T] {
	if c.Priority {
		return &normalClassQueue[T]{pq: queue.NewPriority[T](c.PromoteAfter)}
	}
	return queue.New[T]()
}

// normalClassQueue adapts a class-partitioned PriorityQueue to the
// Supervisor's flat Queue interface by pushing everything at
// ClassNormal. Callers that want class control push onto the
// PriorityQueue directly instead of going through a Supervisor.
type normalClassQueue[T any] struct {
	pq *queue.PriorityQueue[T]
}

func (n *normalClassQueue[T]) Push(w work.Work[T]) error     { return n.pq.Push(w, queue.ClassNormal) }
func (n *normalClassQueue[T]) PopBatch(c int) []work.Work[T] { return n.pq.PopBatch(c) }
func (n *normalClassQueue[T]) Size() int                     { return n.pq.Size() }
func (n *normalClassQueue[T]) Empty() bool                   { return n.pq.Empty() }
func (n *normalClassQueue[T]) Close()                        { n.pq.Close() }
