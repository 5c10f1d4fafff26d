package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workforge/workforge/breaker"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := breaker.New("svc", breaker.Config{Threshold: 2, Timeout: time.Hour, HalfOpenCalls: 1}, nil)

	for i := 0; i < 2; i++ {
		_, _ = breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
			return 0, errors.New("fail")
		})
	}

	if b.State() != breaker.StateOpen {
		t.Fatalf("State() = %v, want StateOpen after threshold failures", b.State())
	}

	_, err := breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		t.Fatal("thunk should not be called while circuit is open")
		return 0, nil
	})
	if !errors.Is(err, breaker.ErrCircuitOpen) {
		t.Errorf("Do() error = %v, want ErrCircuitOpen", err)
	}
}

func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	b := breaker.New("svc", breaker.Config{Threshold: 1, Timeout: 10 * time.Millisecond, HalfOpenCalls: 1}, nil)

	_, _ = breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	})
	if b.State() != breaker.StateOpen {
		t.Fatalf("State() = %v, want StateOpen", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if b.State() != breaker.StateHalfOpen {
		t.Fatalf("State() = %v, want StateHalfOpen after timeout elapses", b.State())
	}

	v, err := breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		return 99, nil
	})
	if err != nil {
		t.Fatalf("Do() unexpected error in half-open trial: %v", err)
	}
	if v != 99 {
		t.Errorf("Do() = %d, want 99", v)
	}
	if b.State() != breaker.StateClosed {
		t.Errorf("State() = %v, want StateClosed after successful half-open trial", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := breaker.New("svc", breaker.Config{Threshold: 1, Timeout: 10 * time.Millisecond, HalfOpenCalls: 1}, nil)

	_, _ = breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	})
	time.Sleep(20 * time.Millisecond)

	_, err := breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		return 0, errors.New("still failing")
	})
	if err == nil {
		t.Fatal("Do() expected the half-open trial's error to propagate")
	}
	if b.State() != breaker.StateOpen {
		t.Errorf("State() = %v, want StateOpen after half-open trial fails", b.State())
	}
}

func TestRegistry_SharesBreakerByKey(t *testing.T) {
	r := breaker.NewRegistry(breaker.DefaultConfig(), nil)

	a := r.Get("shared")
	b := r.Get("shared")
	if a != b {
		t.Error("Get() with the same key should return the same *Breaker instance")
	}

	other := r.Get("other")
	if a == other {
		t.Error("Get() with different keys should return distinct breakers")
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := breaker.NewRegistry(breaker.DefaultConfig(), nil)
	r.Get("a")
	r.Get("b")

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	r.Reset()
	if r.Len() != 0 {
		t.Errorf("Len() after Reset() = %d, want 0", r.Len())
	}
}
