package config

import (
	"time"

	"github.com/workforge/workforge/ratelimit"
)

// SupervisorConfig tunes a Supervisor run independent of its worker
// pool composition, which callers still provide as typed Go values
// since pool factories can't round-trip through JSON.
type SupervisorConfig struct {
	Mode         string        `json:"mode"` // "batch" or "continuous"
	PollInterval time.Duration `json:"poll_interval"`
	Debug        bool          `json:"debug"`

	Queue QueueConfig `json:"queue"`

	// RateLimit throttles how fast WorkSources may be drained into the
	// queue; zero disables throttling.
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// RateLimitConfig configures a token-bucket limiter.
type RateLimitConfig struct {
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
}

// DefaultSupervisorConfig returns batch mode with a 100ms poll interval
// and no rate limiting.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Mode:         "batch",
		PollInterval: 100 * time.Millisecond,
		Queue:        DefaultQueueConfig(),
	}
}

func (c *SupervisorConfig) Merge(source SupervisorConfig) {
	if source.Mode != "" {
		c.Mode = source.Mode
	}
	if source.PollInterval > 0 {
		c.PollInterval = source.PollInterval
	}
	if source.Debug {
		c.Debug = source.Debug
	}
	c.Queue.Merge(source.Queue)
	if source.RateLimit.RatePerSecond > 0 {
		c.RateLimit = source.RateLimit
	}
}

// Limiter builds a ratelimit.Limiter from c, or nil if unconfigured.
func (c RateLimitConfig) Limiter() *ratelimit.Limiter {
	if c.RatePerSecond <= 0 {
		return nil
	}
	return ratelimit.New(c.RatePerSecond, c.Burst)
}
