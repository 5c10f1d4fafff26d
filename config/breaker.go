package config

import (
	"time"

	"github.com/workforge/workforge/breaker"
)

// BreakerConfig configures a circuit breaker instance.
type BreakerConfig struct {
	Threshold     int           `json:"threshold"`
	Timeout       time.Duration `json:"timeout"`
	HalfOpenCalls int           `json:"half_open_calls"`
	SharedKey     string        `json:"shared_key"`
}

// DefaultBreakerConfig mirrors breaker.DefaultConfig.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, Timeout: 30 * time.Second, HalfOpenCalls: 1}
}

func (c *BreakerConfig) Merge(source BreakerConfig) {
	if source.Threshold > 0 {
		c.Threshold = source.Threshold
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	if source.HalfOpenCalls > 0 {
		c.HalfOpenCalls = source.HalfOpenCalls
	}
	if source.SharedKey != "" {
		c.SharedKey = source.SharedKey
	}
}

// Build resolves c into a breaker.Config.
func (c BreakerConfig) Build() breaker.Config {
	return breaker.Config{Threshold: c.Threshold, Timeout: c.Timeout, HalfOpenCalls: c.HalfOpenCalls}
}
