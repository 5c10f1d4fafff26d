package config_test

import (
	"testing"
	"time"

	"github.com/workforge/workforge/config"
	"github.com/workforge/workforge/retry"
)

func TestRetryConfig_MergeOverridesOnlySetFields(t *testing.T) {
	c := config.DefaultRetryConfig()
	c.Merge(config.RetryConfig{MaxAttempts: 5, Strategy: "exponential", ExpInit: time.Millisecond, ExpMult: 2})

	if c.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", c.MaxAttempts)
	}
	if c.Strategy != "exponential" {
		t.Errorf("Strategy = %q, want exponential", c.Strategy)
	}
}

func TestRetryConfig_BuildResolvesStrategy(t *testing.T) {
	c := config.RetryConfig{MaxAttempts: 3, Strategy: "constant", ConstantDelay: 10 * time.Millisecond}
	p := c.Build()
	if p.Strategy != retry.StrategyConstant {
		t.Errorf("Strategy = %v, want StrategyConstant", p.Strategy)
	}
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
}

func TestBreakerConfig_Build(t *testing.T) {
	c := config.DefaultBreakerConfig()
	b := c.Build()
	if b.Threshold != 5 {
		t.Errorf("Threshold = %d, want 5", b.Threshold)
	}
}

func TestQueueConfig_BuildSelectsImplementation(t *testing.T) {
	plain := config.BuildQueue[int](config.DefaultQueueConfig())
	if plain == nil {
		t.Fatal("BuildQueue() = nil for default config")
	}

	priority := config.BuildQueue[int](config.QueueConfig{Priority: true, PromoteAfter: time.Second})
	if priority == nil {
		t.Fatal("BuildQueue() = nil for priority config")
	}
}

func TestDLQConfig_BuildDefaultsToMemory(t *testing.T) {
	q, err := config.DefaultDLQConfig().Build(nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if q == nil {
		t.Fatal("Build() = nil")
	}
}

func TestDLQConfig_BuildRejectsUnknownPersister(t *testing.T) {
	_, err := config.DLQConfig{Persister: "mystery"}.Build(nil)
	if err == nil {
		t.Fatal("Build() error = nil, want failure for unknown persister")
	}
}

func TestObserverConfig_BuildResolvesRegisteredName(t *testing.T) {
	o, err := config.DefaultObserverConfig().Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if o == nil {
		t.Fatal("Build() = nil")
	}
}

func TestObserverConfig_BuildRejectsUnknownName(t *testing.T) {
	_, err := config.ObserverConfig{Name: "mystery"}.Build()
	if err == nil {
		t.Fatal("Build() error = nil, want failure for unknown observer")
	}
}

func TestSupervisorConfig_MergePreservesQueueSubfields(t *testing.T) {
	c := config.DefaultSupervisorConfig()
	c.Merge(config.SupervisorConfig{Queue: config.QueueConfig{Priority: true}})
	if !c.Queue.Priority {
		t.Errorf("Queue.Priority = false, want true after merge")
	}
}

func TestRateLimitConfig_LimiterNilWhenUnconfigured(t *testing.T) {
	if l := (config.RateLimitConfig{}).Limiter(); l != nil {
		t.Errorf("Limiter() = %v, want nil for zero rate", l)
	}
}

func TestWorkflowConfig_MergeCascadesToNestedConfigs(t *testing.T) {
	c := config.DefaultWorkflowConfig("wf")
	c.Merge(config.WorkflowConfig{Breaker: config.BreakerConfig{Threshold: 42}})
	if c.Breaker.Threshold != 42 {
		t.Errorf("Breaker.Threshold = %d, want 42", c.Breaker.Threshold)
	}
	if c.Name != "wf" {
		t.Errorf("Name = %q, want unchanged %q", c.Name, "wf")
	}
}
