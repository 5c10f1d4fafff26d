// Package supervisor orchestrates a pool of worker actors: it spawns
// them from configured pool entries, feeds queued Work to whichever
// actors are idle, and collects their Results, running either until all
// initially-known work is accounted for (batch mode) or until stopped
// (continuous mode).
package supervisor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/workforge/workforge/actor"
	"github.com/workforge/workforge/aggregator"
	"github.com/workforge/workforge/dispatch"
	"github.com/workforge/workforge/observability"
	"github.com/workforge/workforge/queue"
	"github.com/workforge/workforge/ratelimit"
	"github.com/workforge/workforge/work"
	"github.com/workforge/workforge/worker"
)

// Mode selects when Run returns.
type Mode int

const (
	// ModeBatch exits Run once every added work item has produced a
	// result and no work remains queued or in flight.
	ModeBatch Mode = iota
	// ModeContinuous runs until Stop is called or ctx is cancelled.
	ModeContinuous
)

// String renders the mode name.
func (m Mode) String() string {
	if m == ModeContinuous {
		return "continuous"
	}
	return "batch"
}

// WorkerPool describes one pool entry: Count actors are spawned from
// Factory, named "<Name>-<index>". Count <= 0 defaults to the host
// processor count.
type WorkerPool[T, R any] struct {
	Name    string
	Factory worker.Factory[T, R]
	Count   int
}

// WorkSource pulls new work on every poll tick, for continuous mode. A
// nil or empty return means nothing new is available this tick.
type WorkSource[T any] func(ctx context.Context) []work.Work[T]

// Queue is the subset of operations the Supervisor needs from an
// injected queue. queue.Queue satisfies it directly.
type Queue[T any] interface {
	Push(w work.Work[T]) error
	PopBatch(n int) []work.Work[T]
	Size() int
	Empty() bool
	Close()
}

// Config configures a Supervisor.
type Config[T, R any] struct {
	// WorkerPools must contain at least one entry.
	WorkerPools []WorkerPool[T, R]
	// Queue defaults to a plain FIFO (queue.New) when nil.
	Queue Queue[T]
	Mode  Mode
	// WorkSources are polled every PollInterval. Meaningful in
	// continuous mode only.
	WorkSources []WorkSource[T]
	// PollInterval governs how often work sources are polled and how
	// often idle actors are re-offered queued work. Defaults to 100ms.
	PollInterval time.Duration
	Observer     observability.Observer
	Debug        bool
	// RateLimiter, if set, throttles how fast WorkSources are drained
	// into the queue: each item pulled from a source waits for one
	// token before being pushed.
	RateLimiter *ratelimit.Limiter
}

// ActorStatus reports one actor's current lifecycle state.
type ActorStatus struct {
	Name  string
	State actor.State
}

type outboundEvent[T, R any] struct {
	actorName string
	msg       actor.Outbound[T, R]
}

// Supervisor owns a pool of worker actors, a work queue, and a result
// aggregator, tied together by the Work Distribution Manager (dispatch.Manager).
type Supervisor[T, R any] struct {
	cfg      Config[T, R]
	queue    Queue[T]
	agg      *aggregator.Aggregator[T, R]
	manager  *dispatch.Manager
	observer observability.Observer

	mu     sync.Mutex
	actors []*actor.Actor[T, R]

	totalAdded atomic.Int64
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// New creates a Supervisor from cfg. Run has not been called yet; use
// AddWork/AddWorkItems beforehand to seed batch-mode work.
func New[T, R any](cfg Config[T, R]) *Supervisor[T, R] {
	q := cfg.Queue
	if q == nil {
		q = queue.New[T]()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	cfg.Queue = q
	cfg.Observer = observer

	return &Supervisor[T, R]{
		cfg:      cfg,
		queue:    q,
		agg:      aggregator.New[T, R](),
		manager:  dispatch.New(),
		observer: observer,
		stopCh:   make(chan struct{}),
	}
}

// Aggregator returns the Supervisor's result aggregator, for subscribing
// to results before or during Run.
func (s *Supervisor[T, R]) Aggregator() *aggregator.Aggregator[T, R] { return s.agg }

// AddWork enqueues a single work item and counts it toward batch-mode
// completion. Safe to call before Run or while it is running.
func (s *Supervisor[T, R]) AddWork(w work.Work[T]) error {
	if err := s.queue.Push(w); err != nil {
		return err
	}
	s.totalAdded.Add(1)
	return nil
}

// AddWorkItems enqueues each item in order, stopping at the first push
// failure (e.g. a closed queue).
func (s *Supervisor[T, R]) AddWorkItems(items []work.Work[T]) error {
	for _, w := range items {
		if err := s.AddWork(w); err != nil {
			return err
		}
	}
	return nil
}

// RegisterWorkSource adds src to the set polled every PollInterval.
func (s *Supervisor[T, R]) RegisterWorkSource(src WorkSource[T]) {
	s.cfg.WorkSources = append(s.cfg.WorkSources, src)
}

// WorkersStatus snapshots every spawned actor's current lifecycle state.
func (s *Supervisor[T, R]) WorkersStatus() []ActorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make([]ActorStatus, len(s.actors))
	for i, a := range s.actors {
		statuses[i] = ActorStatus{Name: a.Name(), State: a.State()}
	}
	return statuses
}

// Stop requests graceful shutdown: each actor is sent a shutdown message
// and allowed to finish any in-flight work before Run returns. Calling
// Stop a second time closes the queue immediately instead of waiting for
// another graceful round, matching a host signal handler's "second
// Ctrl-C means now" behavior.
func (s *Supervisor[T, R]) Stop() {
	first := false
	s.stopOnce.Do(func() {
		first = true
		close(s.stopCh)
	})
	if !first {
		s.queue.Close()
	}
}

// Run spawns the configured pool and drives the dispatch loop until
// termination: in batch mode, once every added work item has produced a
// result and the queue is empty (work sources are not consulted); in continuous
// mode, only via Stop or ctx cancellation. Run returns ErrNoLiveWorkers
// if every actor exits while work remains outstanding.
func (s *Supervisor[T, R]) Run(ctx context.Context) error {
	if len(s.cfg.WorkerPools) == 0 {
		return ErrNoWorkerPools
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan outboundEvent[T, R], 64)
	var wg sync.WaitGroup

	s.mu.Lock()
	for _, pool := range s.cfg.WorkerPools {
		count := pool.Count
		if count <= 0 {
			count = runtime.NumCPU()
		}
		for i := 0; i < count; i++ {
			name := fmt.Sprintf("%s-%d", pool.Name, i)
			a := actor.New[T, R](name, pool.Factory(), 1, 1, s.observer)
			s.actors = append(s.actors, a)

			wg.Add(1)
			go func(a *actor.Actor[T, R]) {
				defer wg.Done()
				a.Run(runCtx)
			}(a)

			wg.Add(1)
			go s.forwardOutbound(runCtx, a, events, &wg)
		}
	}
	actors := append([]*actor.Actor[T, R]{}, s.actors...)
	s.mu.Unlock()

	s.observer.OnEvent(ctx, observability.Event{
		Type: EventRunStart, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "supervisor.Run",
		Data:   map[string]any{"mode": s.cfg.Mode.String(), "actors": len(actors)},
	})

	byName := make(map[string]*actor.Actor[T, R], len(actors))
	for _, a := range actors {
		byName[a.Name()] = a
		s.manager.MarkIdle(dispatch.NewHandle[T, R](a))
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	liveWorkers := len(actors)

	for {
		s.dispatchOnce(runCtx)

		if s.cfg.Mode == ModeBatch {
			ok, errs := s.agg.Counts()
			if int64(ok+errs) >= s.totalAdded.Load() && s.queue.Empty() {
				s.emitRunComplete(ctx, true)
				s.drainShutdown(runCtx, actors, events, &wg)
				return nil
			}
		}

		if liveWorkers == 0 && !s.queue.Empty() {
			s.observer.OnEvent(ctx, observability.Event{
				Type: EventNoLiveWorkers, Level: observability.LevelCritical, Timestamp: time.Now(),
				Source: "supervisor.Run", Data: map[string]any{"queued": s.queue.Size()},
			})
			cancel()
			wg.Wait()
			return ErrNoLiveWorkers
		}

		select {
		case ev := <-events:
			switch ev.msg.Kind {
			case actor.OutboundInitialized:
				if a, ok := byName[ev.actorName]; ok {
					s.manager.MarkIdle(dispatch.NewHandle[T, R](a))
				}
			case actor.OutboundResult:
				s.agg.Add(ev.msg.Result)
				if a, ok := byName[ev.actorName]; ok {
					s.manager.MarkIdle(dispatch.NewHandle[T, R](a))
				}
			case actor.OutboundClosed:
				liveWorkers--
			}

		case <-ticker.C:
			s.pollWorkSources(runCtx)

		case <-s.stopCh:
			s.emitRunComplete(ctx, false)
			s.drainShutdown(runCtx, actors, events, &wg)
			return nil

		case <-ctx.Done():
			cancel()
			wg.Wait()
			return ctx.Err()
		}
	}
}

func (s *Supervisor[T, R]) forwardOutbound(ctx context.Context, a *actor.Actor[T, R], events chan<- outboundEvent[T, R], wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		out, err := a.Outbound().Receive(ctx)
		if err != nil {
			return
		}
		select {
		case events <- outboundEvent[T, R]{actorName: a.Name(), msg: out}:
		case <-ctx.Done():
			return
		}
		if out.Kind == actor.OutboundClosed {
			return
		}
	}
}

// dispatchOnce pairs as many idle actors with queued work as possible
// right now, via the Work Distribution Manager.
func (s *Supervisor[T, R]) dispatchOnce(ctx context.Context) int {
	popOne := func() (any, bool) {
		batch := s.queue.PopBatch(1)
		if len(batch) == 0 {
			return nil, false
		}
		return batch[0], true
	}
	send := func(h dispatch.Handle, item any) error {
		w, ok := item.(work.Work[T])
		if !ok {
			return fmt.Errorf("supervisor: unexpected queue item type %T", item)
		}
		return h.Send(ctx, actor.WorkMessage(w))
	}
	return s.manager.Dispatch(ctx, popOne, send)
}

func (s *Supervisor[T, R]) pollWorkSources(ctx context.Context) {
	for _, src := range s.cfg.WorkSources {
		for _, w := range src(ctx) {
			if s.cfg.RateLimiter != nil {
				if err := s.cfg.RateLimiter.Wait(ctx); err != nil {
					return
				}
			}
			_ = s.AddWork(w)
		}
	}
}

// drainShutdown sends every actor a shutdown message and waits for its
// Closed event (or a bounded grace period) before returning.
func (s *Supervisor[T, R]) drainShutdown(ctx context.Context, actors []*actor.Actor[T, R], events <-chan outboundEvent[T, R], wg *sync.WaitGroup) {
	s.queue.Close()
	for _, a := range actors {
		_ = a.Send(ctx, actor.ShutdownMessage[T]())
	}

	closed := 0
	grace := time.NewTimer(5 * time.Second)
	defer grace.Stop()

	for closed < len(actors) {
		select {
		case ev := <-events:
			if ev.msg.Kind == actor.OutboundResult {
				s.agg.Add(ev.msg.Result)
			}
			if ev.msg.Kind == actor.OutboundClosed {
				closed++
			}
		case <-grace.C:
			wg.Wait()
			return
		}
	}
	wg.Wait()
}

func (s *Supervisor[T, R]) emitRunComplete(ctx context.Context, drained bool) {
	ok, errs := s.agg.Counts()
	s.observer.OnEvent(ctx, observability.Event{
		Type: EventRunComplete, Level: observability.LevelInfo, Timestamp: time.Now(),
		Source: "supervisor.Run",
		Data:   map[string]any{"results": ok, "errors": errs, "drained": drained},
	})
}
