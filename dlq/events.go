package dlq

import "github.com/workforge/workforge/observability"

const (
	EventDLQAdded   observability.EventType = "dlq.added"
	EventDLQEvicted observability.EventType = "dlq.evicted"
)
