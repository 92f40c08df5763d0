// Package ratelimit caps a worker's request rate with a token bucket built
// on golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits up to r requests per second with a bucket capacity of r
// tokens (one second of burst). The bucket starts empty except for a single
// token, so a fresh run cannot front-load a full second of extra requests;
// tokens accumulate toward the capacity only while the loop is stalled.
//
// A nil *Limiter is valid and admits everything immediately.
type Limiter struct {
	lim *rate.Limiter
}

// New returns a limiter for r requests per second. r must be >= 1.
func New(r int) *Limiter {
	if r < 1 {
		r = 1
	}
	lim := rate.NewLimiter(rate.Limit(r), r)
	// Drain the initial burst down to one token.
	if r > 1 {
		lim.AllowN(time.Now(), r-1)
	}
	return &Limiter{lim: lim}
}

// Acquire blocks until a token is available or the context is done. It never
// busy-spins; the underlying limiter sleeps for the exact refill interval.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.lim.Wait(ctx)
}

// TryAcquire consumes a token if one is available without blocking.
func (l *Limiter) TryAcquire() bool {
	if l == nil {
		return true
	}
	return l.lim.Allow()
}

// SetRate changes the refill rate, used for linear ramp-up. The bucket
// capacity is left at its configured value.
func (l *Limiter) SetRate(r float64) {
	if l == nil {
		return
	}
	if r < 1 {
		r = 1
	}
	l.lim.SetLimit(rate.Limit(r))
}

// Rate returns the current refill rate in requests per second.
func (l *Limiter) Rate() float64 {
	if l == nil {
		return 0
	}
	return float64(l.lim.Limit())
}
