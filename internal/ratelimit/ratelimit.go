package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every request to one upstream
type Limiter struct {
	limiter *rate.Limiter
	rps     float64
}

// New creates a new rate limiter with the specified rate (requests per second).
// The burst is the whole-number part of the rate, at least one.
func New(rps float64) *Limiter {
	if rps <= 0 {
		rps = 1.0
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
	}
}

// Wait blocks until a token is available or context is cancelled
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now without waiting
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// RPS returns the configured rate
func (l *Limiter) RPS() float64 {
	return l.rps
}
