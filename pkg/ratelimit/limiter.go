package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for request pacing
type Limiter interface {
	// Wait blocks until the limiter allows another request or ctx is done
	Wait(ctx context.Context) error
}

// Pacer spaces requests evenly at a fixed rate with no bursting
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing requestsPerSecond requests per second.
// Zero or a negative rate means unlimited.
func NewPacer(requestsPerSecond float64) *Pacer {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request is allowed
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Unlimited reports whether the pacer never delays
func (p *Pacer) Unlimited() bool {
	return p.limiter.Limit() == rate.Inf
}

// Unlimited is a Limiter that never waits
var Unlimited Limiter = unlimited{}

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error { return ctx.Err() }
