/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

// leakyBucketKey is the single key under which the keyless limiter tracks its state.
const leakyBucketKey = "ratelimitqueue"

// LeakyBucketLimiter implements GCRA (Generic Cell Rate Algorithm). It's a leaky bucket variant algorithm.
// More details and good explanation of this alg is provided here: https://brandur.org/rate-limiting#gcra.
type LeakyBucketLimiter struct {
	limiter *throttled.GCRARateLimiterCtx
}

// NewLeakyBucketLimiter creates a new leaky bucket rate limiter.
// maxBurst is the total number of passes grantable in rapid succession after
// an idle period; 0 means 1 (no burst beyond the leak rate).
func NewLeakyBucketLimiter(maxRate Rate, maxBurst int) (*LeakyBucketLimiter, error) {
	if err := maxRate.validate(); err != nil {
		return nil, err
	}
	if maxBurst == 0 {
		maxBurst = 1
	}
	if maxBurst < 1 {
		return nil, fmt.Errorf("%w: burst must be >= 1, got %d", ErrInvalidConfiguration, maxBurst)
	}
	gcraStore, err := memstore.NewCtx(0)
	if err != nil {
		return nil, fmt.Errorf("new in-memory store: %w", err)
	}
	reqQuota := throttled.RateQuota{
		MaxRate: throttled.PerDuration(maxRate.Count, maxRate.Duration),
		// GCRA counts MaxBurst on top of the one request always in flight.
		MaxBurst: maxBurst - 1,
	}
	gcraLimiter, err := throttled.NewGCRARateLimiterCtx(gcraStore, reqQuota)
	if err != nil {
		return nil, fmt.Errorf("new GCRA rate limiter: %w", err)
	}
	return &LeakyBucketLimiter{gcraLimiter}, nil
}

// Acquire blocks until a pass is granted or ctx is done.
func (l *LeakyBucketLimiter) Acquire(ctx context.Context) error {
	return blockingAcquire(ctx, func() (bool, time.Duration, error) {
		limited, res, err := l.limiter.RateLimitCtx(ctx, leakyBucketKey, 1)
		if err != nil {
			return false, 0, fmt.Errorf("rate limit: %w", err)
		}
		return !limited, res.RetryAfter, nil
	})
}

// TryAcquire makes a single non-blocking attempt to get a pass.
func (l *LeakyBucketLimiter) TryAcquire() (ok bool, retryAfter time.Duration) {
	limited, res, err := l.limiter.RateLimitCtx(context.Background(), leakyBucketKey, 1)
	if err != nil {
		return false, 0
	}
	return !limited, res.RetryAfter
}
