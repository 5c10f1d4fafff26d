// Package cronsource adapts a robfig/cron schedule into a Supervisor
// WorkSource: each time the cron expression fires, a generator produces
// a batch of Work that accumulates until the Supervisor's next poll
// drains it.
package cronsource

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/workforge/workforge/work"
)

// Generator produces one tick's worth of Work.
type Generator[T any] func(ctx context.Context) []work.Work[T]

// Source buffers Work produced on a cron schedule for a continuous-mode
// Supervisor to drain. Safe for concurrent use: the cron scheduler's own
// goroutine calls into the buffer on every tick, while the Supervisor's
// poll loop drains it from another.
type Source[T any] struct {
	cron      *cron.Cron
	generator Generator[T]

	mu       sync.Mutex
	buffered []work.Work[T]
}

// New builds a Source that invokes generator every time spec fires,
// using robfig/cron's standard five-field expression syntax.
func New[T any](spec string, generator Generator[T]) (*Source[T], error) {
	s := &Source[T]{generator: generator, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source[T]) tick() {
	items := s.generator(context.Background())
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	s.buffered = append(s.buffered, items...)
	s.mu.Unlock()
}

// Start begins the cron scheduler in its own goroutine.
func (s *Source[T]) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for any running tick to finish.
func (s *Source[T]) Stop() {
	<-s.cron.Stop().Done()
}

// WorkSource drains everything buffered since the last poll. Its
// signature matches supervisor.WorkSource[T], so a Source is registered
// directly via Supervisor.RegisterWorkSource(src.WorkSource).
func (s *Source[T]) WorkSource(ctx context.Context) []work.Work[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buffered) == 0 {
		return nil
	}
	out := s.buffered
	s.buffered = nil
	return out
}
