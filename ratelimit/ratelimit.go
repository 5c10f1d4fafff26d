// Package ratelimit provides a thin, domain-named wrapper over
// golang.org/x/time/rate for the two places the framework throttles
// itself: draining a Supervisor's WorkSources, and admitting circuit
// breaker half-open probes.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket rate limiter. The zero value is not usable;
// construct with New.
type Limiter struct {
	inner *rate.Limiter
}

// New creates a Limiter admitting ratePerSecond tokens per second, with
// burst capacity. burst <= 0 is treated as 1.
func New(ratePerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Unlimited returns a Limiter that never blocks or rejects, for callers
// that want a uniform Limiter-shaped API without conditionally skipping
// the rate-limit check.
func Unlimited() *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Inf, 1)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.inner.Wait(ctx)
}

// Allow reports whether a token is available right now, consuming it if
// so. Used for non-blocking admission checks such as a breaker's
// half-open probe gate.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.inner.Allow()
}
