package dlq

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"
)

// badgerRecord is the on-disk shape stored by badgerhold, keyed by ID.
// Work is carried as `any`; badgerhold gob-encodes it, so callers that
// dead-letter custom payload types should register them with
// encoding/gob if they need cross-process replay.
type badgerRecord struct {
	ID        string         `badgerhold:"key"`
	Work      any            `badgerhold:"index"`
	ErrMsg    string
	Context   map[string]any
	Metadata  map[string]any
	Timestamp int64
}

// BadgerPersister durably records DLQ entries in an embedded BadgerDB,
// via badgerhold, for crash-safe persistence without standing up a
// separate database service.
type BadgerPersister struct {
	store *badgerhold.Store
}

// NewBadgerPersister opens (creating if necessary) a BadgerDB at dir.
func NewBadgerPersister(dir string) (*BadgerPersister, error) {
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("dlq: open badger store: %w", err)
	}
	return &BadgerPersister{store: store}, nil
}

// Close releases the underlying database handle.
func (p *BadgerPersister) Close() error {
	return p.store.Close()
}

func (p *BadgerPersister) Persist(ctx context.Context, e Entry) error {
	rec := badgerRecord{ID: e.ID, Work: e.Work, Context: e.Context, Metadata: e.Metadata, Timestamp: e.Timestamp.UnixNano()}
	if e.Err != nil {
		rec.ErrMsg = e.Err.Error()
	}
	if err := p.store.Upsert(e.ID, rec); err != nil {
		return fmt.Errorf("dlq: persist entry %s: %w", e.ID, err)
	}
	return nil
}

func (p *BadgerPersister) Remove(ctx context.Context, id string) error {
	if err := p.store.Delete(id, &badgerRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("dlq: remove entry %s: %w", id, err)
	}
	return nil
}

func (p *BadgerPersister) Clear(ctx context.Context) error {
	var records []badgerRecord
	if err := p.store.Find(&records, nil); err != nil {
		return fmt.Errorf("dlq: list entries for clear: %w", err)
	}
	for _, r := range records {
		if err := p.store.Delete(r.ID, &badgerRecord{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("dlq: clear entry %s: %w", r.ID, err)
		}
	}
	return nil
}
