// Package workflow implements the Workflow Engine: it resolves a job
// graph into dependency levels, runs each level's jobs through the Job
// Executor, and assembles the final WorkflowResult.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workforge/workforge/executor"
	"github.com/workforge/workforge/job"
	"github.com/workforge/workforge/observability"
	"github.com/workforge/workforge/resolver"
	"github.com/workforge/workforge/wfcontext"
)

// Hooks are lifecycle callbacks invoked around a run. A panic or error
// from a hook is recovered and logged, never propagated into Run.
type Hooks struct {
	OnWorkflowStart    func(name string)
	OnWorkflowComplete func(result *Result)
	OnJobStart         func(jobName string)
	OnJobComplete      func(jobName string, output any, duration time.Duration)
	OnJobError         func(jobName string, err error)
}

// Config wires an Engine to the graph it runs and the Executor it runs
// jobs through.
type Config struct {
	Name     string
	Graph    *job.Graph
	Executor *executor.Executor
	// Resolver defaults to a fresh resolver.New() when nil.
	Resolver *resolver.Resolver
	Observer observability.Observer
	Hooks    Hooks
	// Timeout, if positive, bounds the whole run: remaining levels are
	// abandoned and Run returns the best-effort partial Result with
	// Success=false.
	Timeout time.Duration
}

// TraceEntry records one job's outcome within a run, present when the
// caller wants step-by-step detail beyond the summary Result fields.
type TraceEntry struct {
	JobName  string
	Skipped  bool
	Failed   bool
	Output   any
	Err      error
	Duration time.Duration
}

// Result is the outcome of one workflow run.
type Result struct {
	Name          string
	Output        any
	Completed     []string
	Failed        []string
	Duration      time.Duration
	Success       bool
	CorrelationID string
	Trace         []TraceEntry
}

// Engine drives level-by-level execution of one job graph.
type Engine struct {
	cfg      Config
	resolver *resolver.Resolver
}

// New creates an Engine from cfg.
func New(cfg Config) *Engine {
	if cfg.Resolver == nil {
		cfg.Resolver = resolver.New()
	}
	if cfg.Observer == nil {
		cfg.Observer = observability.NoOpObserver{}
	}
	return &Engine{cfg: cfg, resolver: cfg.Resolver}
}

// Run executes every job in the graph in dependency order, starting
// with workflowInput as the default job input. If correlationID is
// empty, one is generated.
func (e *Engine) Run(ctx context.Context, workflowInput any, correlationID string) (*Result, error) {
	start := time.Now()
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	wctx := wfcontext.New(workflowInput, correlationID)

	e.emitWorkflowStart(ctx)
	e.invokeOnWorkflowStart()

	levels, err := e.resolver.Levels(e.cfg.Graph)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	var trace []TraceEntry
	var haltErr error

levelLoop:
	for _, level := range levels {
		select {
		case <-runCtx.Done():
			haltErr = runCtx.Err()
			break levelLoop
		default:
		}

		outcomes := e.runLevel(runCtx, wctx, level)
		for _, o := range outcomes {
			trace = append(trace, o.trace)
			if o.halts {
				haltErr = &ExecutionError{JobName: o.trace.JobName, Err: o.trace.Err}
			}
		}
		if haltErr != nil {
			e.emitHalted(runCtx, haltErr)
			break levelLoop
		}
	}

	result := &Result{
		Name:          e.cfg.Name,
		Completed:     wctx.CompletedJobs(),
		Failed:        wctx.FailedJobs(),
		Duration:      time.Since(start),
		CorrelationID: correlationID,
		Trace:         trace,
		Success:       haltErr == nil && len(wctx.FailedJobs()) == 0,
	}
	result.Output = e.determineOutput(wctx)

	e.emitWorkflowComplete(runCtx, result)
	e.invokeOnWorkflowComplete(result)

	if haltErr != nil {
		return result, haltErr
	}
	return result, nil
}

type jobOutcome struct {
	trace TraceEntry
	halts bool
}

// runLevel runs every job in one dependency level concurrently, since
// order within a level is unspecified and jobs have no data dependency
// on one another by construction.
func (e *Engine) runLevel(ctx context.Context, wctx *wfcontext.Context, level []string) []jobOutcome {
	outcomes := make([]jobOutcome, len(level))
	var wg sync.WaitGroup
	for i, name := range level {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = e.runJob(ctx, wctx, name)
		}()
	}
	wg.Wait()
	return outcomes
}

func (e *Engine) runJob(ctx context.Context, wctx *wfcontext.Context, name string) jobOutcome {
	j := e.cfg.Graph.Jobs[name]

	if j.Condition != nil && !j.Condition(wctx) {
		e.emitJobSkipped(ctx, name)
		return jobOutcome{trace: TraceEntry{JobName: name, Skipped: true}}
	}

	e.emitJobStart(ctx, name)
	e.invokeOnJobStart(name)

	jobStart := time.Now()
	output, _, err := e.cfg.Executor.Execute(ctx, e.cfg.Graph, wctx, name)
	duration := time.Since(jobStart)

	if err == nil {
		wctx.StoreJobOutput(name, output)
		wctx.MarkCompleted(name)
		e.emitJobComplete(ctx, name, output, duration)
		e.invokeOnJobComplete(name, output, duration)
		return jobOutcome{trace: TraceEntry{JobName: name, Output: output, Duration: duration}}
	}

	wctx.MarkFailed(name)
	e.emitJobFailed(ctx, name, err)
	e.invokeOnJobError(name, err)

	trace := TraceEntry{JobName: name, Failed: true, Err: err, Duration: duration}
	return jobOutcome{trace: trace, halts: !e.anyEndStillReachable(wctx)}
}

// anyEndStillReachable reports whether some end job (OutputToWorkflow
// or TerminatesWorkflow) is already completed, or can still run because
// it isn't downstream of any failed job.
func (e *Engine) anyEndStillReachable(wctx *wfcontext.Context) bool {
	blocked := make(map[string]bool)
	for _, name := range wctx.FailedJobs() {
		blocked[name] = true
	}
	for changed := true; changed; {
		changed = false
		for name, j := range e.cfg.Graph.Jobs {
			if blocked[name] {
				continue
			}
			for _, dep := range j.Dependencies {
				if blocked[dep] {
					blocked[name] = true
					changed = true
					break
				}
			}
		}
	}

	completed := make(map[string]bool)
	for _, name := range wctx.CompletedJobs() {
		completed[name] = true
	}

	for name, j := range e.cfg.Graph.Jobs {
		if !j.OutputToWorkflow && !j.TerminatesWorkflow {
			continue
		}
		if completed[name] || !blocked[name] {
			return true
		}
	}
	return false
}

// determineOutput picks the first job (in declaration order) marked
// OutputToWorkflow that completed, falling back to the first completed
// job marked either OutputToWorkflow or TerminatesWorkflow.
func (e *Engine) determineOutput(wctx *wfcontext.Context) any {
	names := e.cfg.Graph.Names()

	for _, name := range names {
		j := e.cfg.Graph.Jobs[name]
		if !j.OutputToWorkflow {
			continue
		}
		if out, ok := wctx.JobOutput(name); ok {
			return out
		}
	}
	for _, name := range names {
		j := e.cfg.Graph.Jobs[name]
		if !j.OutputToWorkflow && !j.TerminatesWorkflow {
			continue
		}
		if out, ok := wctx.JobOutput(name); ok {
			return out
		}
	}
	return nil
}
