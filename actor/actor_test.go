package actor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workforge/workforge/actor"
	"github.com/workforge/workforge/work"
	"github.com/workforge/workforge/worker"
)

func doubler() worker.ProcessorFunc[int, int] {
	return func(ctx context.Context, w work.Work[int]) work.Result[int, int] {
		return work.Ok[int, int](w.Payload(), w.Payload()*2)
	}
}

func TestActor_ProcessesWorkInOrder(t *testing.T) {
	a := actor.New[int, int]("worker-1", doubler(), 4, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	// drain the Initialized message
	if msg, err := a.Outbound().Receive(ctx); err != nil || msg.Kind != actor.OutboundInitialized {
		t.Fatalf("expected Initialized first, got %+v, err=%v", msg, err)
	}

	for i := 1; i <= 5; i++ {
		if err := a.Send(ctx, actor.WorkMessage(work.New("w", i))); err != nil {
			t.Fatalf("Send() unexpected error: %v", err)
		}
	}

	for i := 1; i <= 5; i++ {
		msg, err := a.Outbound().Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() unexpected error: %v", err)
		}
		if msg.Kind != actor.OutboundResult {
			t.Fatalf("expected Result message, got kind=%d", msg.Kind)
		}
		want := i * 2
		if msg.Result.Value != want {
			t.Errorf("result[%d] = %d, want %d (out-of-order or wrong value)", i, msg.Result.Value, want)
		}
	}
}

func TestActor_Shutdown(t *testing.T) {
	a := actor.New[int, int]("worker-1", doubler(), 1, 1, nil)

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	if _, err := a.Outbound().Receive(ctx); err != nil {
		t.Fatalf("Receive() Initialized unexpected error: %v", err)
	}

	if err := a.Send(ctx, actor.ShutdownMessage[int]()); err != nil {
		t.Fatalf("Send() shutdown unexpected error: %v", err)
	}

	msg, err := a.Outbound().Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() Closed unexpected error: %v", err)
	}
	if msg.Kind != actor.OutboundClosed {
		t.Fatalf("expected Closed message, got kind=%d", msg.Kind)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after shutdown")
	}

	if a.State() != actor.StateClosed {
		t.Errorf("State() = %v, want StateClosed", a.State())
	}
}

func TestActor_RecoversPanic(t *testing.T) {
	panicker := worker.ProcessorFunc[int, int](func(ctx context.Context, w work.Work[int]) work.Result[int, int] {
		if w.Payload() == 1 {
			panic("boom")
		}
		return work.Ok[int, int](w.Payload(), w.Payload()*2)
	})

	a := actor.New[int, int]("worker-1", panicker, 1, 1, nil)

	ctx := context.Background()
	go a.Run(ctx)

	if _, err := a.Outbound().Receive(ctx); err != nil {
		t.Fatalf("Receive() Initialized unexpected error: %v", err)
	}

	if err := a.Send(ctx, actor.WorkMessage(work.New("w", 1))); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	msg, err := a.Outbound().Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() unexpected error: %v", err)
	}
	if msg.Result.IsOk() {
		t.Fatal("expected a failed Result after panic, got Ok")
	}
	if msg.Result.ErrorKind != actor.ErrorKindWorkerFailure {
		t.Errorf("ErrorKind = %q, want %q", msg.Result.ErrorKind, actor.ErrorKindWorkerFailure)
	}
	if msg.Result.Severity != work.SeverityCritical {
		t.Errorf("Severity = %v, want SeverityCritical", msg.Result.Severity)
	}

	// the actor must still be usable after recovering a panic.
	if err := a.Send(ctx, actor.WorkMessage(work.New("w2", 2))); err != nil {
		t.Fatalf("Send() after panic unexpected error: %v", err)
	}
	msg2, err := a.Outbound().Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() unexpected error: %v", err)
	}
	if !msg2.Result.IsOk() || msg2.Result.Value != 4 {
		t.Errorf("actor should keep processing after a panic, got %+v", msg2.Result)
	}
}

func TestActor_WrapsPlainError(t *testing.T) {
	failing := worker.ProcessorFunc[int, int](func(ctx context.Context, w work.Work[int]) work.Result[int, int] {
		return work.Result[int, int]{WorkRef: w.Payload(), Err: errors.New("bad input")}
	})

	a := actor.New[int, int]("worker-1", failing, 1, 1, nil)
	ctx := context.Background()
	go a.Run(ctx)

	if _, err := a.Outbound().Receive(ctx); err != nil {
		t.Fatalf("Receive() Initialized unexpected error: %v", err)
	}
	_ = a.Send(ctx, actor.WorkMessage(work.New("w", 1)))

	msg, err := a.Outbound().Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() unexpected error: %v", err)
	}
	if msg.Result.ErrorKind != actor.ErrorKindWorkerFailure {
		t.Errorf("ErrorKind = %q, want default %q when unset", msg.Result.ErrorKind, actor.ErrorKindWorkerFailure)
	}
}
