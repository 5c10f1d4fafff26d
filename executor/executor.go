// Package executor implements the Job Executor: it runs one Job via a
// fresh single-pool Supervisor, wrapped in the job's own retry and
// circuit breaker decorators, with fallback and dead-letter handling on
// unrecoverable failure.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workforge/workforge/breaker"
	"github.com/workforge/workforge/dlq"
	"github.com/workforge/workforge/job"
	"github.com/workforge/workforge/observability"
	"github.com/workforge/workforge/retry"
	"github.com/workforge/workforge/supervisor"
	"github.com/workforge/workforge/wfcontext"
	"github.com/workforge/workforge/work"
)

// Executor runs individual Jobs on behalf of a Workflow Engine run. One
// Executor is scoped to a single workflow run: its non-shared breakers
// live and die with it, while shared-key breakers are looked up in the
// long-lived Registry passed at construction.
type Executor struct {
	workers        *Registry
	sharedBreakers *breaker.Registry
	dlqQueue       *dlq.Queue
	observer       observability.Observer
	workflowName   string

	localMu       sync.Mutex
	localBreakers map[string]*breaker.Breaker
}

// New creates an Executor for one workflow run. sharedBreakers may be
// nil, in which case a job configured with a sharedKey falls back to
// breaker.Default(). dlqQueue may be nil, in which case unrecoverable
// failures are simply not persisted anywhere beyond the returned error.
func New(workflowName string, workers *Registry, sharedBreakers *breaker.Registry, dlqQueue *dlq.Queue, observer observability.Observer) *Executor {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	if sharedBreakers == nil {
		sharedBreakers = breaker.Default()
	}
	return &Executor{
		workers:        workers,
		sharedBreakers: sharedBreakers,
		dlqQueue:       dlqQueue,
		observer:       observer,
		workflowName:   workflowName,
		localBreakers:  make(map[string]*breaker.Breaker),
	}
}

// Execute runs jobName from g against wctx: it builds the job's input
// from the context's recorded outputs, runs it through
// retry(circuitBreaker(supervisor.run(work))), and on unrecoverable
// failure attempts the job's fallback (if any) before writing a DLQ
// entry and returning the error. usedFallback reports whether the
// returned output came from the fallback job instead of jobName itself.
func (e *Executor) Execute(ctx context.Context, g *job.Graph, wctx *wfcontext.Context, jobName string) (output any, usedFallback bool, err error) {
	j, ok := g.Jobs[jobName]
	if !ok {
		return nil, false, fmt.Errorf("executor: job %q not found in graph", jobName)
	}

	input, err := wctx.BuildJobInput(j)
	if err != nil {
		return nil, false, err
	}

	output, outcome, err := e.runDecorated(ctx, j, input, wctx.CorrelationID())
	if err == nil {
		return output, false, nil
	}

	if j.FallbackJobName != "" {
		if fb, ok := g.Jobs[j.FallbackJobName]; ok {
			if fbOutput, fbErr := e.runFallback(ctx, fb, wctx); fbErr == nil {
				return fbOutput, true, nil
			} else {
				err = fmt.Errorf("job %q failed (%w); fallback %q also failed: %v", j.Name, err, j.FallbackJobName, fbErr)
			}
		}
	}

	e.writeDLQ(ctx, j, input, wctx.CorrelationID(), outcome, err)
	if j.OnError != nil {
		safeOnError(j.OnError, err, wctx)
	}
	return nil, false, err
}

// runFallback executes fb once, with no retry and no breaker, building
// its input from the same live context.
func (e *Executor) runFallback(ctx context.Context, fb *job.Job, wctx *wfcontext.Context) (any, error) {
	input, err := wctx.BuildJobInput(fb)
	if err != nil {
		return nil, err
	}
	w := work.New(uuid.NewString(), input).WithCorrelationID(wctx.CorrelationID())
	return e.runSupervised(ctx, fb, w)
}

// runDecorated composes j's configured decorators around a single
// supervised run: retry(circuitBreaker(supervisor.run(work))). Either
// decorator is omitted when the job doesn't configure it.
func (e *Executor) runDecorated(ctx context.Context, j *job.Job, input any, correlationID string) (any, *retry.Outcome, error) {
	w := work.New(uuid.NewString(), input).WithCorrelationID(correlationID)

	inner := func(ctx context.Context) (any, error) {
		return e.runSupervised(ctx, j, w)
	}

	decorated := inner
	if j.Breaker != nil {
		br := e.breakerFor(j)
		decorated = func(ctx context.Context) (any, error) {
			return breaker.Do(ctx, br, inner)
		}
	}

	if j.RetryPolicy != nil {
		out, outcome, err := retry.Do(ctx, *j.RetryPolicy, e.observer, decorated)
		return out, outcome, err
	}

	out, err := decorated(ctx)
	return out, nil, err
}

// runSupervised runs j's worker on a fresh single-pool Supervisor with
// one actor of its type, feeds it w, and applies the executor's result
// policy: the first success wins; failing that, the first error is
// raised.
func (e *Executor) runSupervised(ctx context.Context, j *job.Job, w work.Work[any]) (any, error) {
	factory, ok := e.workers.Get(j.WorkerType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, j.WorkerType)
	}

	sup := supervisor.New(supervisor.Config[any, any]{
		WorkerPools: []supervisor.WorkerPool[any, any]{
			{Name: j.WorkerType, Factory: factory, Count: 1},
		},
		Mode:     supervisor.ModeBatch,
		Observer: e.observer,
	})

	if err := sup.AddWork(w); err != nil {
		return nil, fmt.Errorf("executor: enqueue work for job %q: %w", j.Name, err)
	}
	if err := sup.Run(ctx); err != nil {
		return nil, fmt.Errorf("executor: supervised run for job %q: %w", j.Name, err)
	}

	if results := sup.Aggregator().Results(); len(results) > 0 {
		return results[0].Value, nil
	}
	if errs := sup.Aggregator().Errors(); len(errs) > 0 {
		failed := errs[0]
		if failed.ErrorKind != "" {
			return nil, retry.NewKindError(failed.ErrorKind, failed.Err)
		}
		return nil, failed.Err
	}
	return nil, fmt.Errorf("executor: job %q produced neither a result nor an error", j.Name)
}

func (e *Executor) breakerFor(j *job.Job) *breaker.Breaker {
	if j.Breaker.SharedKey != "" {
		return e.sharedBreakers.GetWithConfig(j.Breaker.SharedKey, j.Breaker.Config)
	}

	e.localMu.Lock()
	defer e.localMu.Unlock()
	if b, ok := e.localBreakers[j.Name]; ok {
		return b
	}
	b := breaker.New(j.Name, j.Breaker.Config, e.observer)
	e.localBreakers[j.Name] = b
	return b
}

// writeDLQ records an unrecoverable job failure, with the metadata the
// spec's DLQ entry shape requires: job and worker identity, correlation
// and workflow identity, and the retry history if any.
func (e *Executor) writeDLQ(ctx context.Context, j *job.Job, input any, correlationID string, outcome *retry.Outcome, err error) {
	if e.dlqQueue == nil {
		return
	}

	metadata := map[string]any{
		"jobName":       j.Name,
		"workerType":    j.WorkerType,
		"correlationId": correlationID,
		"workflowName":  e.workflowName,
	}
	if kind := errorKind(err, outcome); kind != "" {
		metadata["errorKind"] = kind
	}
	if outcome != nil {
		metadata["retryAttempts"] = outcome.Attempts
		metadata["totalRetryTime"] = outcome.TotalElapsed
		metadata["allErrors"] = outcome.AllErrors
	}

	entry := dlq.Entry{
		ID:        uuid.NewString(),
		Work:      input,
		Err:       err,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
	_ = e.dlqQueue.Add(ctx, entry)
}

// errorKind recovers the worker's classification of the failure, so DLQ
// entries can be bucketed by kind instead of all landing under
// "unknown". retry.Do's *ExhaustedError only unwraps to the sentinel
// ErrExhausted, not the last attempt's own error, so a retried job's
// kind has to be read off outcome.Errors directly.
func errorKind(err error, outcome *retry.Outcome) string {
	var ke retry.KindedError
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	if outcome != nil && len(outcome.Errors) > 0 {
		if errors.As(outcome.Errors[len(outcome.Errors)-1].Err, &ke) {
			return ke.Kind()
		}
	}
	return ""
}

func safeOnError(hook job.ErrorHook, err error, ctx job.Context) {
	defer func() { _ = recover() }()
	hook(err, ctx)
}
