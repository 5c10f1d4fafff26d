package supervisor

import "errors"

// ErrNoWorkerPools is returned by Run when Config.WorkerPools is empty.
var ErrNoWorkerPools = errors.New("supervisor: at least one worker pool is required")

// ErrNoLiveWorkers is returned by Run when every actor has exited while
// work remains queued.
var ErrNoLiveWorkers = errors.New("supervisor: no live workers remain with work outstanding")
