// Package ratelimit implements the orchestrator's single global token
// bucket, consulted once per drain-loop iteration before an item is
// dequeued.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps golang.org/x/time/rate.Limiter as the global bucket
// described in component 4.G: capacity equal to the configured rate,
// refilled continuously at that rate. Using x/time/rate (rather than a
// hand-rolled elapsed-time credit) keeps the bucket from ever drifting
// above capacity while idle, since Reserve/Wait always clamps against
// the configured burst.
type Limiter struct {
	limiter *rate.Limiter
}

// New builds a limiter admitting ratePerSecond tokens per second with
// a burst (bucket capacity) of the same size, matching the spec's
// "capacity = rate_limit_per_second" rule.
func New(ratePerSecond float64) *Limiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait consumes one token, suspending the caller for the precise time
// needed to accumulate it if the bucket is currently empty.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// SetRate updates the bucket's refill rate and capacity in place,
// used when configuration is reloaded.
func (l *Limiter) SetRate(ratePerSecond float64) {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	l.limiter.SetLimit(rate.Limit(ratePerSecond))
	l.limiter.SetBurst(burst)
}
