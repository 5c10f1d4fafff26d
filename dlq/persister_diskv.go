package dlq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peterbourgon/diskv"
)

// diskvRecord is the JSON shape stored under each entry's key.
type diskvRecord struct {
	ID        string         `json:"id"`
	Work      any            `json:"work"`
	ErrMsg    string         `json:"err_msg"`
	Context   map[string]any `json:"context"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp int64          `json:"timestamp"`
}

// DiskvPersister stores DLQ entries as individual JSON blobs under a
// sharded directory tree, with diskv's built-in in-memory LRU cache
// fronting reads. Lighter-weight than BadgerPersister's embedded LSM
// engine for deployments that just want entries to survive a restart.
type DiskvPersister struct {
	store *diskv.Diskv
}

// NewDiskvPersister opens (creating if necessary) a diskv store rooted
// at dir, sharding entries two levels deep by key prefix.
func NewDiskvPersister(dir string) *DiskvPersister {
	store := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    diskvShard,
		CacheSizeMax: 1 << 20, // 1MB
	})
	return &DiskvPersister{store: store}
}

// diskvShard fans keys out two directories deep by their first four
// characters, so one DLQ doesn't pile thousands of files into a single
// directory.
func diskvShard(key string) []string {
	if len(key) < 4 {
		return []string{"_short"}
	}
	return []string{key[0:2], key[2:4]}
}

func (p *DiskvPersister) Persist(ctx context.Context, e Entry) error {
	rec := diskvRecord{ID: e.ID, Work: e.Work, Context: e.Context, Metadata: e.Metadata, Timestamp: e.Timestamp.UnixNano()}
	if e.Err != nil {
		rec.ErrMsg = e.Err.Error()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("dlq: marshal entry %s: %w", e.ID, err)
	}
	if err := p.store.Write(e.ID, data); err != nil {
		return fmt.Errorf("dlq: persist entry %s: %w", e.ID, err)
	}
	return nil
}

func (p *DiskvPersister) Remove(ctx context.Context, id string) error {
	if !p.store.Has(id) {
		return nil
	}
	if err := p.store.Erase(id); err != nil {
		return fmt.Errorf("dlq: remove entry %s: %w", id, err)
	}
	return nil
}

func (p *DiskvPersister) Clear(ctx context.Context) error {
	if err := p.store.EraseAll(); err != nil {
		return fmt.Errorf("dlq: clear entries: %w", err)
	}
	return nil
}
