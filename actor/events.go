package actor

import "github.com/workforge/workforge/observability"

const (
	EventActorInitialized  observability.EventType = "actor.initialized"
	EventActorWorkStart    observability.EventType = "actor.work.start"
	EventActorWorkComplete observability.EventType = "actor.work.complete"
	EventActorClosed       observability.EventType = "actor.closed"
)
