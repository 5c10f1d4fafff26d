package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workforge/workforge/breaker"
	"github.com/workforge/workforge/ratelimit"
)

func TestBreaker_HalfOpenLimiterGatesProbes(t *testing.T) {
	cfg := breaker.Config{
		Threshold:       1,
		Timeout:         10 * time.Millisecond,
		HalfOpenCalls:   5,
		HalfOpenLimiter: ratelimit.New(1, 1),
	}
	b := breaker.New("svc", cfg, nil)

	_, _ = breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	})
	time.Sleep(20 * time.Millisecond)

	_, err := breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if err != nil {
		t.Fatalf("first half-open probe error = %v, want nil (burst token available)", err)
	}

	_, _ = breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail again")
	})
	time.Sleep(20 * time.Millisecond)

	_, err = breaker.Do[int](context.Background(), b, func(ctx context.Context) (int, error) {
		t.Fatal("thunk should not run: half-open limiter should reject even though HalfOpenCalls slots are free")
		return 0, nil
	})
	if !errors.Is(err, breaker.ErrCircuitOpen) {
		t.Fatalf("Do() error = %v, want ErrCircuitOpen once the rate limiter's single token is spent", err)
	}
}
