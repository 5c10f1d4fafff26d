package retry

import "github.com/workforge/workforge/observability"

const (
	EventRetryAttemptFailed observability.EventType = "retry.attempt.failed"
	EventRetrySucceeded     observability.EventType = "retry.succeeded"
	EventRetryExhausted     observability.EventType = "retry.exhausted"
)
