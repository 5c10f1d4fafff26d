package dlq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workforge/workforge/dlq"
)

func TestQueue_AddAndFilter(t *testing.T) {
	q := dlq.New(10, nil, nil)

	_ = q.Add(context.Background(), dlq.Entry{
		ID: "1", Err: errors.New("boom"), Timestamp: time.Now(),
		Metadata: map[string]any{"errorKind": "WorkerFailure"},
	})
	_ = q.Add(context.Background(), dlq.Entry{
		ID: "2", Err: errors.New("nope"), Timestamp: time.Now(),
		Metadata: map[string]any{"errorKind": "CircuitOpen"},
	})

	all := q.All()
	if len(all) != 2 {
		t.Fatalf("All() len = %d, want 2", len(all))
	}

	byKind := q.ByErrorKind("WorkerFailure")
	if len(byKind) != 1 || byKind[0].ID != "1" {
		t.Errorf("ByErrorKind() = %+v, want entry 1 only", byKind)
	}
}

func TestQueue_EvictsOldestAtCapacity(t *testing.T) {
	q := dlq.New(2, nil, nil)

	for i := 1; i <= 3; i++ {
		_ = q.Add(context.Background(), dlq.Entry{ID: string(rune('0' + i)), Timestamp: time.Now()})
	}

	all := q.All()
	if len(all) != 2 {
		t.Fatalf("All() len = %d, want 2 (bounded capacity)", len(all))
	}
	if all[0].ID == "1" {
		t.Error("the oldest entry should have been evicted")
	}
}

func TestQueue_OnAddHandlerIsolation(t *testing.T) {
	q := dlq.New(10, nil, nil)

	called := false
	q.OnAdd(func(e dlq.Entry) { panic("boom") })
	q.OnAdd(func(e dlq.Entry) { called = true })

	if err := q.Add(context.Background(), dlq.Entry{ID: "1", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if !called {
		t.Error("a panicking handler should not prevent later handlers from running")
	}
}

func TestQueue_RetryEntryRemovesOnSuccess(t *testing.T) {
	q := dlq.New(10, nil, nil)
	_ = q.Add(context.Background(), dlq.Entry{ID: "1", Timestamp: time.Now()})

	err := q.RetryEntry(context.Background(), "1", func(ctx context.Context, e dlq.Entry) error {
		return nil
	})
	if err != nil {
		t.Fatalf("RetryEntry() unexpected error: %v", err)
	}
	if len(q.All()) != 0 {
		t.Error("a successfully retried entry should be removed from the queue")
	}
}

func TestQueue_RetryEntryKeepsOnFailure(t *testing.T) {
	q := dlq.New(10, nil, nil)
	_ = q.Add(context.Background(), dlq.Entry{ID: "1", Timestamp: time.Now()})

	err := q.RetryEntry(context.Background(), "1", func(ctx context.Context, e dlq.Entry) error {
		return errors.New("still failing")
	})
	if err == nil {
		t.Fatal("RetryEntry() expected the replay error to propagate")
	}
	if len(q.All()) != 1 {
		t.Error("a failed retry should leave the entry in the queue")
	}
}

func TestQueue_Stats(t *testing.T) {
	q := dlq.New(10, nil, nil)
	_ = q.Add(context.Background(), dlq.Entry{ID: "1", Timestamp: time.Now(), Metadata: map[string]any{"errorKind": "WorkerFailure"}})
	_ = q.Add(context.Background(), dlq.Entry{ID: "2", Timestamp: time.Now(), Metadata: map[string]any{"errorKind": "WorkerFailure"}})
	_ = q.Add(context.Background(), dlq.Entry{ID: "3", Timestamp: time.Now(), Metadata: map[string]any{"errorKind": "CircuitOpen"}})

	stats := q.Stats()
	if stats.Total != 3 {
		t.Errorf("Stats().Total = %d, want 3", stats.Total)
	}
	if stats.ByKind["WorkerFailure"] != 2 {
		t.Errorf("Stats().ByKind[WorkerFailure] = %d, want 2", stats.ByKind["WorkerFailure"])
	}
}

func TestQueue_ClearRemovesAll(t *testing.T) {
	q := dlq.New(10, nil, nil)
	_ = q.Add(context.Background(), dlq.Entry{ID: "1", Timestamp: time.Now()})

	if err := q.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() unexpected error: %v", err)
	}
	if len(q.All()) != 0 {
		t.Error("Clear() should remove every entry")
	}
}
