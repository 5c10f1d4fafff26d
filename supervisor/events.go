package supervisor

import "github.com/workforge/workforge/observability"

const (
	EventRunStart      observability.EventType = "supervisor.run.start"
	EventRunComplete   observability.EventType = "supervisor.run.complete"
	EventNoLiveWorkers observability.EventType = "supervisor.no_live_workers"
)
