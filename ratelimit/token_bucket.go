/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter implements token bucket rate limiting on top of
// golang.org/x/time/rate. Tokens refill continuously, so grants are spaced
// evenly instead of being aligned to window boundaries.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
}

// NewTokenBucketLimiter creates a new token bucket rate limiter.
// maxBurst is the bucket size, i.e. how many passes may be granted in rapid
// succession after an idle period; 0 means "equal to the rate count".
func NewTokenBucketLimiter(maxRate Rate, maxBurst int) (*TokenBucketLimiter, error) {
	if err := maxRate.validate(); err != nil {
		return nil, err
	}
	if maxBurst == 0 {
		maxBurst = maxRate.Count
	}
	if maxBurst < maxRate.Count {
		return nil, fmt.Errorf("%w: burst must be >= rate count, got burst %d for count %d",
			ErrInvalidConfiguration, maxBurst, maxRate.Count)
	}
	lim := rate.NewLimiter(rate.Limit(float64(maxRate.Count)/maxRate.Duration.Seconds()), maxBurst)
	return &TokenBucketLimiter{limiter: lim}, nil
}

// Acquire blocks until a pass is granted or ctx is done.
func (l *TokenBucketLimiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s", ErrAcquireTimeout, err)
	}
	return nil
}

// TryAcquire makes a single non-blocking attempt to get a pass.
func (l *TokenBucketLimiter) TryAcquire() (ok bool, retryAfter time.Duration) {
	if l.limiter.Allow() {
		return true, 0
	}
	r := l.limiter.Reserve()
	retryAfter = r.Delay()
	r.Cancel()
	return false, retryAfter
}
