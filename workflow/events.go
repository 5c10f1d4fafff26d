package workflow

import "github.com/workforge/workforge/observability"

const (
	EventWorkflowStart    observability.EventType = "workflow.start"
	EventWorkflowComplete observability.EventType = "workflow.complete"
	EventJobStart         observability.EventType = "workflow.job_start"
	EventJobComplete      observability.EventType = "workflow.job_complete"
	EventJobSkipped       observability.EventType = "workflow.job_skipped"
	EventJobFailed        observability.EventType = "workflow.job_failed"
	EventHalted           observability.EventType = "workflow.halted"
)
