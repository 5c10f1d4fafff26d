package dlq

import "errors"

// ErrNotFound is returned by RetryEntry when the given entry ID is not
// present in the queue.
var ErrNotFound = errors.New("dlq: entry not found")
