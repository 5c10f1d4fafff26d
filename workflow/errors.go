package workflow

import "fmt"

// ExecutionError surfaces a job's unrecoverable failure once the
// Workflow Engine determines no end job is still reachable. It wraps
// the triggering job's own error.
type ExecutionError struct {
	JobName string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("workflow: job %q failed, no end job remains reachable: %v", e.JobName, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
