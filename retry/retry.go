/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package retry provides helpers for re-running operations that failed with a
// transient condition, such as an empty queue or an exhausted rate limit.
// The library itself never retries anything internally; consumers that want
// retries do them explicitly with this package.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-ratelimitqueue/blockingqueue"
	"github.com/acronis/go-ratelimitqueue/ratelimit"
)

// ShouldRetry tells if an error is transient as opposed to persistent.
type ShouldRetry func(error) bool

// TransientQueueError reports whether err is one of the library's transient
// conditions worth retrying: an empty or full queue, a rate limit refusal, or
// a pass acquisition that ran out of time. It's a ready-made ShouldRetry for
// queue consumers and producers.
func TransientQueueError(err error) bool {
	return errors.Is(err, blockingqueue.ErrEmpty) ||
		errors.Is(err, blockingqueue.ErrFull) ||
		errors.Is(err, ratelimit.ErrRateLimited) ||
		errors.Is(err, ratelimit.ErrAcquireTimeout)
}

// Op is an operation that does some work and can be potentially retried.
type Op func(ctx context.Context) error

// Strategy builds the backoff schedule for one Do call.
// A fresh backoff.BackOff is built per call, so strategies are reusable and
// safe for concurrent use.
type Strategy interface {
	NewBackOff() backoff.BackOff
}

// Do executes op, re-running it according to the strategy while shouldRetry
// reports its error as transient (nil means "retry any error") and ctx is not
// done. The last error is returned when the schedule is exhausted.
func Do(ctx context.Context, s Strategy, shouldRetry ShouldRetry, op Op) error {
	return DoWithNotify(ctx, s, shouldRetry, nil, op)
}

// DoWithNotify is a version of Do calling notify with the error and the
// upcoming delay before every retry.
func DoWithNotify(ctx context.Context, s Strategy, shouldRetry ShouldRetry, notify backoff.Notify, op Op) error {
	b := backoff.WithContext(s.NewBackOff(), ctx)
	wrapped := func() error {
		err := op(b.Context())
		if err != nil && shouldRetry != nil && !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(wrapped, b, notify)
}

// StrategyFunc is an adapter to allow the use of ordinary functions as a Strategy.
type StrategyFunc func() backoff.BackOff

// NewBackOff implements Strategy.
func (f StrategyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// Constant retries up to maxAttempts times with a fixed delay between attempts.
// maxAttempts <= 0 means no attempt limit.
func Constant(interval time.Duration, maxAttempts int) Strategy {
	return StrategyFunc(func() backoff.BackOff {
		var b backoff.BackOff = backoff.NewConstantBackOff(interval)
		if maxAttempts > 0 {
			b = backoff.WithMaxRetries(b, uint64(maxAttempts))
		}
		b.Reset()
		return b
	})
}

// Exponential retries up to maxAttempts times with exponentially growing
// delays starting from initialInterval. maxAttempts <= 0 means no attempt limit.
func Exponential(initialInterval time.Duration, maxAttempts int) Strategy {
	return StrategyFunc(func() backoff.BackOff {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = initialInterval
		var b backoff.BackOff = eb
		if maxAttempts > 0 {
			b = backoff.WithMaxRetries(eb, uint64(maxAttempts))
		}
		b.Reset()
		return b
	})
}
