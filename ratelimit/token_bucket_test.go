/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// TokenBucketLimiterTestSuite contains tests for TokenBucketLimiter.
type TokenBucketLimiterTestSuite struct {
	suite.Suite
}

func TestTokenBucketLimiter(t *testing.T) {
	suite.Run(t, new(TokenBucketLimiterTestSuite))
}

func (ts *TokenBucketLimiterTestSuite) TestInvalidConfiguration() {
	_, err := NewTokenBucketLimiter(Rate{Count: 0, Duration: time.Second}, 0)
	ts.ErrorIs(err, ErrInvalidConfiguration)

	_, err = NewTokenBucketLimiter(Rate{Count: 3, Duration: time.Second}, 2)
	ts.ErrorIs(err, ErrInvalidConfiguration)
}

func (ts *TokenBucketLimiterTestSuite) TestBucketDrainsAndRefuses() {
	limiter, err := NewTokenBucketLimiter(Rate{Count: 2, Duration: time.Second}, 0)
	ts.Require().NoError(err)

	for i := 0; i < 2; i++ {
		ok, _ := limiter.TryAcquire()
		ts.True(ok, "pass %d should be granted from a full bucket", i+1)
	}

	ok, retryAfter := limiter.TryAcquire()
	ts.False(ok)
	ts.Greater(retryAfter, time.Duration(0))
}

func (ts *TokenBucketLimiterTestSuite) TestAcquireWaitsForRefill() {
	limiter, err := NewTokenBucketLimiter(Rate{Count: 1, Duration: 200 * time.Millisecond}, 0)
	ts.Require().NoError(err)

	ctx := context.Background()
	ts.Require().NoError(limiter.Acquire(ctx))

	start := time.Now()
	ts.Require().NoError(limiter.Acquire(ctx))
	elapsed := time.Since(start)

	ts.GreaterOrEqual(elapsed, 150*time.Millisecond)
	ts.Less(elapsed, 500*time.Millisecond)
}

func (ts *TokenBucketLimiterTestSuite) TestAcquireTimeout() {
	limiter, err := NewTokenBucketLimiter(Rate{Count: 1, Duration: time.Second}, 0)
	ts.Require().NoError(err)

	ts.Require().NoError(limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ts.ErrorIs(limiter.Acquire(ctx), ErrAcquireTimeout)
}
