package queue_test

import (
	"testing"

	"github.com/workforge/workforge/queue"
	"github.com/workforge/workforge/work"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := queue.New[int]()

	for i := 1; i <= 3; i++ {
		if err := q.Push(work.New("w", i)); err != nil {
			t.Fatalf("Push() unexpected error: %v", err)
		}
	}

	for i := 1; i <= 3; i++ {
		w, ok := q.PopOne()
		if !ok {
			t.Fatalf("PopOne() ok=false, want true at i=%d", i)
		}
		if w.Payload() != i {
			t.Errorf("PopOne() = %d, want %d", w.Payload(), i)
		}
	}

	if _, ok := q.PopOne(); ok {
		t.Error("PopOne() on empty queue should return ok=false")
	}
}

func TestQueue_PopBatch(t *testing.T) {
	q := queue.New[int]()
	for i := 0; i < 5; i++ {
		_ = q.Push(work.New("w", i))
	}

	batch := q.PopBatch(3)
	if len(batch) != 3 {
		t.Fatalf("PopBatch(3) len = %d, want 3", len(batch))
	}
	if q.Size() != 2 {
		t.Errorf("Size() after PopBatch = %d, want 2", q.Size())
	}

	rest := q.PopBatch(10)
	if len(rest) != 2 {
		t.Errorf("PopBatch(10) len = %d, want 2 (fewer than requested)", len(rest))
	}
}

func TestQueue_PushAfterCloseFails(t *testing.T) {
	q := queue.New[int]()
	q.Close()

	if err := q.Push(work.New("w", 1)); err != queue.ErrQueueClosed {
		t.Errorf("Push() after Close() error = %v, want ErrQueueClosed", err)
	}
}

func TestQueue_PopAfterCloseStillDrains(t *testing.T) {
	q := queue.New[int]()
	_ = q.Push(work.New("w", 1))
	q.Close()

	w, ok := q.PopOne()
	if !ok || w.Payload() != 1 {
		t.Error("PopOne() should still drain items queued before Close()")
	}
}
