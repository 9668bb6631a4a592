/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAcquireTimeout is returned (possibly wrapped) by Limiter.Acquire when the
// caller's context is done before a pass could be granted.
// No limiter state is mutated in this case.
var ErrAcquireTimeout = errors.New("rate limit pass was not acquired in time")

// ErrRateLimited is returned (possibly wrapped) by non-blocking operations
// when a pass is not immediately available.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrInvalidConfiguration is returned (wrapped with details) by constructors
// when the passed parameters don't describe a valid limiter.
var ErrInvalidConfiguration = errors.New("invalid rate limiter configuration")

// Rate describes the frequency of granted passes: Count passes per Duration.
type Rate struct {
	Count    int
	Duration time.Duration
}

// String implements fmt.Stringer.
func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Count, r.Duration)
}

func (r Rate) validate() error {
	if r.Count < 1 {
		return fmt.Errorf("%w: rate count must be >= 1, got %d", ErrInvalidConfiguration, r.Count)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%w: rate duration must be positive, got %s", ErrInvalidConfiguration, r.Duration)
	}
	return nil
}

// Limiter is the contract for acquiring passes.
type Limiter interface {
	// Acquire blocks until a pass is granted or ctx is done.
	// On ctx expiry it returns an error matching ErrAcquireTimeout via errors.Is.
	Acquire(ctx context.Context) error

	// TryAcquire makes a single non-blocking attempt to get a pass.
	// On refusal it reports an estimate of how long the caller should wait
	// before the next attempt. The estimate is advisory: another caller may
	// take the freed slot first.
	TryAcquire() (ok bool, retryAfter time.Duration)
}

// acquireFunc makes a single non-blocking attempt to get a pass,
// reporting the retry estimate on refusal.
type acquireFunc func() (ok bool, retryAfter time.Duration, err error)

// blockingAcquire runs try in a loop, sleeping the advised time between the
// attempts. The wait never happens under a limiter's lock. The state is always
// re-checked after waking up since another caller may have taken the slot.
func blockingAcquire(ctx context.Context, try acquireFunc) error {
	ok, retryAfter, err := try()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	retryTimer := time.NewTimer(retryAfter)
	defer retryTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrAcquireTimeout, ctx.Err())
		case <-retryTimer.C:
			// Will do another attempt to acquire a pass.
		}

		if ok, retryAfter, err = try(); err != nil {
			return err
		} else if ok {
			return nil
		}

		if !retryTimer.Stop() {
			select {
			case <-retryTimer.C:
			default:
			}
		}
		if retryAfter < 0 {
			retryAfter = 0
		}
		retryTimer.Reset(retryAfter)
	}
}
