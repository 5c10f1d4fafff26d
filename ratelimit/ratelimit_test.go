package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/workforge/workforge/ratelimit"
)

func TestLimiter_AllowRespectsBurst(t *testing.T) {
	l := ratelimit.New(1, 2)
	if !l.Allow() {
		t.Fatal("first Allow() = false, want true (burst token available)")
	}
	if !l.Allow() {
		t.Fatal("second Allow() = false, want true (burst token available)")
	}
	if l.Allow() {
		t.Fatal("third Allow() = true, want false (burst exhausted)")
	}
}

func TestLimiter_WaitBlocksUntilTokenAvailable(t *testing.T) {
	l := ratelimit.New(1000, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestLimiter_NilIsPermissive(t *testing.T) {
	var l *ratelimit.Limiter
	if !l.Allow() {
		t.Error("nil Limiter.Allow() = false, want true")
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("nil Limiter.Wait() error = %v, want nil", err)
	}
}

func TestUnlimited_NeverBlocks(t *testing.T) {
	l := ratelimit.Unlimited()
	for i := 0; i < 1000; i++ {
		if !l.Allow() {
			t.Fatalf("Allow() = false at iteration %d, want always true for Unlimited", i)
		}
	}
}
