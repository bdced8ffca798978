package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests to a fixed number per minute.
// A nil *Limiter never blocks.
type Limiter struct {
	limiter           *rate.Limiter
	requestsPerMinute int
}

// NewLimiter returns a limiter allowing requestsPerMinute requests with a burst of the
// same size. A zero or negative value means unlimited and yields nil.
func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return &Limiter{
		limiter:           rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
		requestsPerMinute: requestsPerMinute,
	}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed now without waiting.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}

// RequestsPerMinute returns the configured rate, 0 when unlimited.
func (l *Limiter) RequestsPerMinute() int {
	if l == nil {
		return 0
	}
	return l.requestsPerMinute
}
