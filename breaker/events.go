package breaker

import "github.com/workforge/workforge/observability"

const (
	EventBreakerOpened observability.EventType = "breaker.opened"
	EventBreakerClosed observability.EventType = "breaker.closed"
)
