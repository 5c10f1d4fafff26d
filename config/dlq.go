package config

import (
	"fmt"

	"github.com/workforge/workforge/dlq"
	"github.com/workforge/workforge/observability"
)

// DLQConfig configures a Dead-Letter Queue's capacity and persistence
// backend. Persister is resolved by name since persister construction
// (e.g. opening a Badger directory) can fail and needs a path argument.
type DLQConfig struct {
	Capacity  int    `json:"capacity"`
	Persister string `json:"persister"` // "memory", "file", "badger", "diskv"
	Dir       string `json:"dir"`       // required for "file" and "badger"
}

// DefaultDLQConfig returns an in-memory, 1000-entry DLQ.
func DefaultDLQConfig() DLQConfig {
	return DLQConfig{Capacity: 1000, Persister: "memory"}
}

func (c *DLQConfig) Merge(source DLQConfig) {
	if source.Capacity > 0 {
		c.Capacity = source.Capacity
	}
	if source.Persister != "" {
		c.Persister = source.Persister
	}
	if source.Dir != "" {
		c.Dir = source.Dir
	}
}

// Build resolves c into a *dlq.Queue, opening the configured persister.
func (c DLQConfig) Build(observer observability.Observer) (*dlq.Queue, error) {
	var persister dlq.Persister
	switch c.Persister {
	case "", "memory":
		persister = dlq.MemoryPersister{}
	case "file":
		p, err := dlq.NewFilePersister(c.Dir)
		if err != nil {
			return nil, fmt.Errorf("config: open file persister: %w", err)
		}
		persister = p
	case "badger":
		p, err := dlq.NewBadgerPersister(c.Dir)
		if err != nil {
			return nil, fmt.Errorf("config: open badger persister: %w", err)
		}
		persister = p
	case "diskv":
		persister = dlq.NewDiskvPersister(c.Dir)
	default:
		return nil, fmt.Errorf("config: unknown dlq persister %q", c.Persister)
	}
	return dlq.New(c.Capacity, persister, observer), nil
}
