// Package job defines the declarative Job DSL: one record per workflow
// node, built either with the fluent builder or loaded from YAML via
// LoadGraph. A Job is immutable once a Graph has been validated.
package job

import (
	"fmt"

	"github.com/workforge/workforge/breaker"
	"github.com/workforge/workforge/retry"
)

// Context is the minimal read-only view of workflow execution state a
// Condition or ErrorHook needs. wfcontext.Context satisfies this
// interface without job importing that package.
type Context interface {
	JobOutput(name string) (any, bool)
	CompletedJobs() []string
	FailedJobs() []string
}

// Condition gates whether a job runs, evaluated against the live
// workflow context immediately before the job would start.
type Condition func(ctx Context) bool

// ErrorHook is invoked when a job's execution fails unrecoverably, after
// retry/breaker/fallback have all been exhausted.
type ErrorHook func(err error, ctx Context)

// InputKind selects how a Job's input is built from the workflow context.
type InputKind int

const (
	// InputDefault falls back to the workflow's own input, same as
	// InputFromWorkflow — the spec's "default" case.
	InputDefault InputKind = iota
	InputFromWorkflow
	InputFromJob
	InputFromMultiple
)

// FieldMapping copies SourceField from an upstream job's output map into
// TargetField of the constructed aggregate input.
type FieldMapping struct {
	TargetField string
	SourceField string
}

// MultiSource names one upstream job contributing fields to an
// InputFromMultiple binding. An empty Mappings copies the job's entire
// output under a key equal to JobName.
type MultiSource struct {
	JobName  string
	Mappings []FieldMapping
}

// InputBinding describes how to build a job's input. The zero value is
// InputDefault.
type InputBinding struct {
	Kind    InputKind
	JobName string
	Sources []MultiSource
}

// BreakerBinding configures C9 for a job. SharedKey, when non-empty,
// keys the breaker in a registry shared across workflow runs; empty
// means the breaker is scoped to this job within this run.
type BreakerBinding struct {
	Config    breaker.Config
	SharedKey string
}

// Job is one node of a workflow DAG: a worker type to run, its upstream
// dependencies, how its input is built and its output consumed, and the
// optional decorators (retry, circuit breaker, fallback, condition,
// error hook) the Job Executor applies around it.
type Job struct {
	Name               string
	WorkerType         string
	Dependencies       []string
	Input              InputBinding
	OutputToWorkflow   bool
	TerminatesWorkflow bool
	Condition          Condition
	RetryPolicy        *retry.Policy
	Breaker            *BreakerBinding
	FallbackJobName    string
	OnError            ErrorHook
}

// New starts building a Job that runs with workerType, input defaulting
// to the workflow's own input.
func New(name, workerType string) *Job {
	return &Job{Name: name, WorkerType: workerType, Input: InputBinding{Kind: InputDefault}}
}

// Needs records upstream dependencies; the resolver will not schedule
// this job until all of them have completed.
func (j *Job) Needs(names ...string) *Job {
	j.Dependencies = append(j.Dependencies, names...)
	return j
}

// InputsFromWorkflow binds this job's input to the workflow's input.
func (j *Job) InputsFromWorkflow() *Job {
	j.Input = InputBinding{Kind: InputFromWorkflow}
	return j
}

// InputsFromJob binds this job's input to the named upstream job's output.
func (j *Job) InputsFromJob(name string) *Job {
	j.Input = InputBinding{Kind: InputFromJob, JobName: name}
	return j
}

// InputsFromMultiple fans multiple upstream outputs into one aggregate
// input, field by field.
func (j *Job) InputsFromMultiple(sources ...MultiSource) *Job {
	j.Input = InputBinding{Kind: InputFromMultiple, Sources: sources}
	return j
}

// OutputsToWorkflow marks this job's output as a candidate for the
// workflow's own output (the first completed job so marked wins).
func (j *Job) OutputsToWorkflow() *Job {
	j.OutputToWorkflow = true
	return j
}

// TerminatesWorkflowRun marks this job as an acceptable end of the
// workflow, for validator and output-selection purposes.
func (j *Job) TerminatesWorkflowRun() *Job {
	j.TerminatesWorkflow = true
	return j
}

// If attaches a condition gating whether this job runs.
func (j *Job) If(cond Condition) *Job {
	j.Condition = cond
	return j
}

// RetryOnError attaches a retry policy the executor applies around this
// job's supervised run.
func (j *Job) RetryOnError(p retry.Policy) *Job {
	j.RetryPolicy = &p
	return j
}

// CircuitBreaker attaches a circuit breaker around this job's supervised
// run. sharedKey, when non-empty, keys the breaker in the shared
// registry instead of scoping it to one workflow run.
func (j *Job) CircuitBreaker(cfg breaker.Config, sharedKey string) *Job {
	j.Breaker = &BreakerBinding{Config: cfg, SharedKey: sharedKey}
	return j
}

// FallbackTo names a job to run once, without retry or breaker, if this
// job's decorated execution fails. The fallback's output is recorded
// under this job's own name.
func (j *Job) FallbackTo(name string) *Job {
	j.FallbackJobName = name
	return j
}

// OnErrorHook attaches a hook invoked on unrecoverable failure, after
// fallback (if any) has also failed.
func (j *Job) OnErrorHook(fn ErrorHook) *Job {
	j.OnError = fn
	return j
}

// Graph is an unordered collection of Jobs identified by name, as
// defined by the user (fluently or via LoadGraph) before the validator
// checks it and the resolver levels it.
type Graph struct {
	Jobs  map[string]*Job
	order []string
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{Jobs: make(map[string]*Job)}
}

// Add registers j. Returns an error if its name is empty or already used.
func (g *Graph) Add(j *Job) error {
	if j.Name == "" {
		return fmt.Errorf("job: job name cannot be empty")
	}
	if _, exists := g.Jobs[j.Name]; exists {
		return fmt.Errorf("job: duplicate job name %q", j.Name)
	}
	g.Jobs[j.Name] = j
	g.order = append(g.order, j.Name)
	return nil
}

// Names returns job names in the order they were added.
func (g *Graph) Names() []string {
	return append([]string{}, g.order...)
}
