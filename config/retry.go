// Package config defines layered, JSON-serializable configuration for
// every tunable subsystem: a Default constructor, a Merge method that
// overlays a partial override onto a base, and a Build method that
// resolves the config into the concrete domain type the subsystem
// actually runs with.
package config

import (
	"time"

	"github.com/workforge/workforge/retry"
)

// RetryConfig configures a job's retry policy.
type RetryConfig struct {
	MaxAttempts int    `json:"max_attempts"`
	Strategy    string `json:"strategy"` // "none", "constant", "linear", "exponential"

	ConstantDelay time.Duration `json:"constant_delay"`

	LinearInit time.Duration `json:"linear_init"`
	LinearInc  time.Duration `json:"linear_inc"`
	LinearMax  time.Duration `json:"linear_max"`

	ExpInit   time.Duration `json:"exp_init"`
	ExpMult   float64       `json:"exp_mult"`
	ExpMax    time.Duration `json:"exp_max"`
	ExpJitter bool          `json:"exp_jitter"`

	Timeout time.Duration `json:"timeout"`

	RetryableErrorKinds []string `json:"retryable_error_kinds"`
}

// DefaultRetryConfig returns a single-attempt, no-retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 1, Strategy: "none"}
}

func (c *RetryConfig) Merge(source RetryConfig) {
	if source.MaxAttempts > 0 {
		c.MaxAttempts = source.MaxAttempts
	}
	if source.Strategy != "" {
		c.Strategy = source.Strategy
	}
	if source.ConstantDelay > 0 {
		c.ConstantDelay = source.ConstantDelay
	}
	if source.LinearInit > 0 {
		c.LinearInit = source.LinearInit
	}
	if source.LinearInc > 0 {
		c.LinearInc = source.LinearInc
	}
	if source.LinearMax > 0 {
		c.LinearMax = source.LinearMax
	}
	if source.ExpInit > 0 {
		c.ExpInit = source.ExpInit
	}
	if source.ExpMult > 0 {
		c.ExpMult = source.ExpMult
	}
	if source.ExpMax > 0 {
		c.ExpMax = source.ExpMax
	}
	if source.ExpJitter {
		c.ExpJitter = source.ExpJitter
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	if len(source.RetryableErrorKinds) > 0 {
		c.RetryableErrorKinds = source.RetryableErrorKinds
	}
}

var strategyByName = map[string]retry.Strategy{
	"none":        retry.StrategyNone,
	"constant":    retry.StrategyConstant,
	"linear":      retry.StrategyLinear,
	"exponential": retry.StrategyExponential,
}

// Build resolves c into a retry.Policy. An unrecognized Strategy name
// resolves to StrategyNone.
func (c RetryConfig) Build() retry.Policy {
	return retry.Policy{
		MaxAttempts:         c.MaxAttempts,
		Strategy:            strategyByName[c.Strategy],
		ConstantDelay:       c.ConstantDelay,
		LinearInit:          c.LinearInit,
		LinearInc:           c.LinearInc,
		LinearMax:           c.LinearMax,
		ExpInit:             c.ExpInit,
		ExpMult:             c.ExpMult,
		ExpMax:              c.ExpMax,
		ExpJitter:           c.ExpJitter,
		Timeout:             c.Timeout,
		RetryableErrorKinds: c.RetryableErrorKinds,
	}
}
