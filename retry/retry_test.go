package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workforge/workforge/retry"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	p := retry.Policy{MaxAttempts: 3, Strategy: retry.StrategyNone}

	v, outcome, err := retry.Do(context.Background(), p, nil, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})

	if err != nil {
		t.Fatalf("Do() unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("Do() value = %d, want 42", v)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if outcome.Attempts != 1 {
		t.Errorf("outcome.Attempts = %d, want 1", outcome.Attempts)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	p := retry.Policy{MaxAttempts: 5, Strategy: retry.StrategyConstant, ConstantDelay: time.Millisecond}

	v, outcome, err := retry.Do(context.Background(), p, nil, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "done", nil
	})

	if err != nil {
		t.Fatalf("Do() unexpected error: %v", err)
	}
	if v != "done" {
		t.Errorf("Do() value = %q, want done", v)
	}
	if outcome.Attempts != 3 {
		t.Errorf("outcome.Attempts = %d, want 3", outcome.Attempts)
	}
	if len(outcome.Errors) != 2 {
		t.Errorf("outcome.Errors len = %d, want 2 intermediate errors", len(outcome.Errors))
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("permanent failure")
	p := retry.Policy{MaxAttempts: 3, Strategy: retry.StrategyNone}

	_, outcome, err := retry.Do(context.Background(), p, nil, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Do() error = %v, want *ExhaustedError", err)
	}
	if !errors.Is(err, retry.ErrExhausted) {
		t.Error("Do() error should unwrap to ErrExhausted")
	}
	if outcome.Attempts != 3 {
		t.Errorf("outcome.Attempts = %d, want 3", outcome.Attempts)
	}
	if outcome.AllErrors == nil || outcome.AllErrors.Len() != 3 {
		t.Errorf("AllErrors should combine all 3 intermediate errors")
	}
}

func TestDo_RespectsRetryableErrorKinds(t *testing.T) {
	p := retry.Policy{
		MaxAttempts:         5,
		Strategy:            retry.StrategyNone,
		RetryableErrorKinds: []string{"transient"},
	}

	calls := 0
	_, outcome, err := retry.Do(context.Background(), p, nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, retry.NewKindError("permanent", errors.New("nope"))
	})

	if err == nil {
		t.Fatal("Do() expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-retryable kind should not retry)", calls)
	}
	if outcome.Attempts != 1 {
		t.Errorf("outcome.Attempts = %d, want 1", outcome.Attempts)
	}
}

func TestDo_ExponentialBackoffRespectsMax(t *testing.T) {
	p := retry.Policy{
		MaxAttempts: 4,
		Strategy:    retry.StrategyExponential,
		ExpInit:     time.Millisecond,
		ExpMult:     10,
		ExpMax:      5 * time.Millisecond,
	}

	start := time.Now()
	_, _, err := retry.Do(context.Background(), p, nil, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Do() expected an error")
	}
	// 3 delays capped at 5ms each should stay well under an unbounded
	// exponential curve (1ms, 10ms, 100ms would be 111ms+).
	if elapsed > 100*time.Millisecond {
		t.Errorf("elapsed = %v, want capped well under unbounded exponential growth", elapsed)
	}
}

func TestDo_TimeoutStopsRetrying(t *testing.T) {
	p := retry.Policy{
		MaxAttempts:   100,
		Strategy:      retry.StrategyConstant,
		ConstantDelay: 5 * time.Millisecond,
		Timeout:       20 * time.Millisecond,
	}

	_, outcome, err := retry.Do(context.Background(), p, nil, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	})

	if err == nil {
		t.Fatal("Do() expected an error once timeout elapses")
	}
	if outcome.TotalElapsed > 100*time.Millisecond {
		t.Errorf("TotalElapsed = %v, want roughly bounded by Timeout", outcome.TotalElapsed)
	}
}
