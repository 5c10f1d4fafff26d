package dlq

import "context"

// MemoryPersister discards every entry; it is the default Persister,
// used when the caller wants the bounded in-memory queue semantics
// without durability.
type MemoryPersister struct{}

func (MemoryPersister) Persist(ctx context.Context, e Entry) error  { return nil }
func (MemoryPersister) Remove(ctx context.Context, id string) error { return nil }
func (MemoryPersister) Clear(ctx context.Context) error             { return nil }
