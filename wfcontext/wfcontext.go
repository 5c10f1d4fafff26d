// Package wfcontext implements the Workflow Context: the per-run state
// a Workflow Engine execution threads through the Job Executor — the
// workflow's own input, each completed job's output, and which jobs
// have completed or failed.
package wfcontext

import (
	"fmt"
	"sync"

	"github.com/workforge/workforge/job"
)

// Context holds one workflow run's live state: its input, every
// completed job's output, and completion/failure bookkeeping used by
// job Conditions. Safe for concurrent use, since jobs within a level
// may run in parallel.
type Context struct {
	mu            sync.RWMutex
	workflowInput any
	correlationID string
	outputs       map[string]any
	completed     []string
	failed        []string
}

// New creates a Context seeded with the workflow's input.
func New(workflowInput any, correlationID string) *Context {
	return &Context{
		workflowInput: workflowInput,
		correlationID: correlationID,
		outputs:       make(map[string]any),
	}
}

// CorrelationID returns the run's correlation id, propagated into Work
// and DLQ entries.
func (c *Context) CorrelationID() string { return c.correlationID }

// WorkflowInput returns the input the workflow run was started with.
func (c *Context) WorkflowInput() any { return c.workflowInput }

// StoreJobOutput records j's output, for later lookup by JobOutput and
// by downstream input bindings.
func (c *Context) StoreJobOutput(jobName string, output any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs[jobName] = output
}

// JobOutput returns the recorded output for jobName, if any.
func (c *Context) JobOutput(jobName string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.outputs[jobName]
	return v, ok
}

// MarkCompleted records jobName as completed.
func (c *Context) MarkCompleted(jobName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, jobName)
}

// MarkFailed records jobName as failed.
func (c *Context) MarkFailed(jobName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, jobName)
}

// CompletedJobs returns a snapshot of completed job names, in the order
// they completed.
func (c *Context) CompletedJobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.completed...)
}

// FailedJobs returns a snapshot of failed job names, in the order they failed.
func (c *Context) FailedJobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.failed...)
}

// BuildJobInput computes j's input per its InputBinding: the workflow's
// own input, an upstream job's recorded output, an aggregate built
// field-by-field from multiple upstream outputs, or (the default case)
// the workflow's own input.
func (c *Context) BuildJobInput(j *job.Job) (any, error) {
	switch j.Input.Kind {
	case job.InputFromJob:
		out, ok := c.JobOutput(j.Input.JobName)
		if !ok {
			return nil, fmt.Errorf("wfcontext: job %q has no recorded output for input binding", j.Input.JobName)
		}
		return out, nil

	case job.InputFromMultiple:
		aggregate := make(map[string]any)
		for _, src := range j.Input.Sources {
			out, ok := c.JobOutput(src.JobName)
			if !ok {
				return nil, fmt.Errorf("wfcontext: job %q has no recorded output for multi-input binding", src.JobName)
			}
			if len(src.Mappings) == 0 {
				aggregate[src.JobName] = out
				continue
			}
			fields, ok := out.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("wfcontext: job %q output is not field-addressable (%T) for a mapped multi-input binding", src.JobName, out)
			}
			for _, m := range src.Mappings {
				aggregate[m.TargetField] = fields[m.SourceField]
			}
		}
		return aggregate, nil

	case job.InputFromWorkflow, job.InputDefault:
		return c.workflowInput, nil

	default:
		return c.workflowInput, nil
	}
}
