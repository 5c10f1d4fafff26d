package cronsource_test

import (
	"context"
	"testing"
	"time"

	"github.com/workforge/workforge/cronsource"
	"github.com/workforge/workforge/work"
)

func TestSource_WorkSourceDrainsBufferedItems(t *testing.T) {
	calls := 0
	src, err := cronsource.New("@every 30ms", func(ctx context.Context) []work.Work[int] {
		calls++
		return []work.Work[int]{work.New("tick", calls)}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	src.Start()
	defer src.Stop()

	deadline := time.Now().Add(2 * time.Second)
	var drained []work.Work[int]
	for time.Now().Before(deadline) {
		drained = src.WorkSource(context.Background())
		if len(drained) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(drained) == 0 {
		t.Fatal("WorkSource() returned nothing after waiting for a tick")
	}
}

func TestSource_WorkSourceEmptyWhenNothingBuffered(t *testing.T) {
	src, err := cronsource.New("@every 1h", func(ctx context.Context) []work.Work[int] {
		return nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if out := src.WorkSource(context.Background()); len(out) != 0 {
		t.Errorf("WorkSource() = %v, want empty before any tick", out)
	}
}

func TestSource_RejectsInvalidSpec(t *testing.T) {
	_, err := cronsource.New("not a cron spec", func(ctx context.Context) []work.Work[int] { return nil })
	if err == nil {
		t.Fatal("New() error = nil, want parse failure")
	}
}
