/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"time"

	"github.com/RussellLuo/slidingwindow"
)

// SlidingWindowLimiter implements sliding window rate limiting algorithm.
// Unlike SlidingLogLimiter it keeps counters for two adjacent fixed windows
// instead of individual grant timestamps, trading exactness for constant
// memory. It has no burst allowance.
type SlidingWindowLimiter struct {
	limiter *slidingwindow.Limiter
	maxRate Rate
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(maxRate Rate) (*SlidingWindowLimiter, error) {
	if err := maxRate.validate(); err != nil {
		return nil, err
	}
	lim, _ := slidingwindow.NewLimiter(
		maxRate.Duration, int64(maxRate.Count), func() (slidingwindow.Window, slidingwindow.StopFunc) {
			return slidingwindow.NewLocalWindow()
		})
	return &SlidingWindowLimiter{limiter: lim, maxRate: maxRate}, nil
}

// Acquire blocks until a pass is granted or ctx is done.
func (l *SlidingWindowLimiter) Acquire(ctx context.Context) error {
	return blockingAcquire(ctx, func() (bool, time.Duration, error) {
		ok, retryAfter := l.TryAcquire()
		return ok, retryAfter, nil
	})
}

// TryAcquire makes a single non-blocking attempt to get a pass.
// On refusal it reports the time until the current fixed window rolls over.
func (l *SlidingWindowLimiter) TryAcquire() (ok bool, retryAfter time.Duration) {
	if l.limiter.Allow() {
		return true, 0
	}
	now := time.Now()
	retryAfter = now.Truncate(l.maxRate.Duration).Add(l.maxRate.Duration).Sub(now)
	return false, retryAfter
}
