/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// FuzzedLimiter wraps another Limiter and sleeps a random duration in
// [0, maxFuzz) after passes that were granted without any rate-induced
// waiting. It de-synchronizes a group of workers started at the same moment,
// so they don't drain the whole burst allowance in a single spike.
//
// If ctx is done during the fuzz sleep, Acquire returns nil anyway: the pass
// has already been granted and the remaining jitter is best-effort.
type FuzzedLimiter struct {
	base    Limiter
	maxFuzz time.Duration
}

// NewFuzzedLimiter creates a limiter adding random jitter to the passes granted by base.
func NewFuzzedLimiter(base Limiter, maxFuzz time.Duration) (*FuzzedLimiter, error) {
	if maxFuzz <= 0 {
		return nil, fmt.Errorf("%w: max fuzz must be positive, got %s", ErrInvalidConfiguration, maxFuzz)
	}
	return &FuzzedLimiter{base: base, maxFuzz: maxFuzz}, nil
}

// Acquire blocks until a pass is granted or ctx is done.
func (l *FuzzedLimiter) Acquire(ctx context.Context) error {
	if ok, _ := l.base.TryAcquire(); ok {
		fuzzTimer := time.NewTimer(time.Duration(rand.Int63n(int64(l.maxFuzz))))
		defer fuzzTimer.Stop()
		select {
		case <-ctx.Done():
		case <-fuzzTimer.C:
		}
		return nil
	}
	// A rate-induced wait is already due, no extra jitter on top of it.
	return l.base.Acquire(ctx)
}

// TryAcquire makes a single non-blocking attempt to get a pass. No jitter is applied.
func (l *FuzzedLimiter) TryAcquire() (ok bool, retryAfter time.Duration) {
	return l.base.TryAcquire()
}
