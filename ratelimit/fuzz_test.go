/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFuzzedLimiter(t *testing.T) {
	t.Run("invalid configuration", func(t *testing.T) {
		base := MustSlidingLogLimiter(Rate{Count: 1, Duration: time.Second}, SlidingLogLimiterOpts{})
		_, err := NewFuzzedLimiter(base, 0)
		require.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("jitter is bounded and the pass is granted", func(t *testing.T) {
		base := MustSlidingLogLimiter(Rate{Count: 10, Duration: time.Second}, SlidingLogLimiterOpts{})
		limiter, err := NewFuzzedLimiter(base, 100*time.Millisecond)
		require.NoError(t, err)

		start := time.Now()
		require.NoError(t, limiter.Acquire(context.Background()))
		require.Less(t, time.Since(start), 300*time.Millisecond)
		require.Equal(t, uint64(1), base.Stats().PassesGranted)
	})

	t.Run("no jitter on top of a rate-induced wait", func(t *testing.T) {
		base := MustSlidingLogLimiter(Rate{Count: 1, Duration: 200 * time.Millisecond}, SlidingLogLimiterOpts{})
		limiter, err := NewFuzzedLimiter(base, time.Hour)
		require.NoError(t, err)

		require.NoError(t, base.Acquire(context.Background()))

		// The pass is already due a rate wait, so the huge fuzz must not apply.
		start := time.Now()
		require.NoError(t, limiter.Acquire(context.Background()))
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("ctx expiry cuts the jitter short", func(t *testing.T) {
		base := MustSlidingLogLimiter(Rate{Count: 10, Duration: time.Second}, SlidingLogLimiterOpts{})
		limiter, err := NewFuzzedLimiter(base, time.Hour)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		require.NoError(t, limiter.Acquire(ctx))
		require.Less(t, time.Since(start), time.Second)
		require.Equal(t, uint64(1), base.Stats().PassesGranted)
	})
}
