package clients

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing requests.
type RateLimiter interface {
	// Allow reports whether a request may happen now
	Allow() bool
	// Wait blocks until a request may happen or ctx is done
	Wait(ctx context.Context) error
}

// NewRateLimiter returns a token bucket allowing perSecond requests with the
// given burst. A burst below one is raised to one.
func NewRateLimiter(perSecond float64, burst int) RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
