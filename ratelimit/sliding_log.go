/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// SlidingLogLimiter enforces a ceiling of calls granted passes in any trailing
// window of the per duration. It records the timestamp of every granted pass
// in a bounded log (capacity = burst) and refuses a pass while the trailing
// window already contains calls grants.
//
// Burst semantics: a limiter that has been idle for longer than per regains a
// one-off allowance of burst passes that may be granted in rapid succession
// before the per-window spacing engages again. With burst == calls (the
// default) the window ceiling is strict at all times.
//
// Only the check-and-record step is mutually exclusive; waiting callers don't
// hold the lock, so concurrent grants and re-evaluations proceed independently.
type SlidingLogLimiter struct {
	calls int
	per   time.Duration
	burst int

	mu     sync.Mutex
	log    []time.Time // grant instants, oldest first
	credit int         // burst passes left on top of the window allowance

	granted  atomic.Uint64
	timeouts atomic.Uint64
	waiting  atomic.Int32
}

// SlidingLogLimiterOpts represents options for SlidingLogLimiter.
type SlidingLogLimiterOpts struct {
	// Burst is the number of passes grantable in rapid succession after the
	// limiter has been idle for longer than the window. Must be >= the rate
	// count. 0 means "equal to the rate count" (no extra allowance).
	Burst int
}

// NewSlidingLogLimiter creates a new sliding log rate limiter with the default options.
func NewSlidingLogLimiter(maxRate Rate) (*SlidingLogLimiter, error) {
	return NewSlidingLogLimiterWithOpts(maxRate, SlidingLogLimiterOpts{})
}

// NewSlidingLogLimiterWithOpts creates a new sliding log rate limiter with the provided options.
func NewSlidingLogLimiterWithOpts(maxRate Rate, opts SlidingLogLimiterOpts) (*SlidingLogLimiter, error) {
	if err := maxRate.validate(); err != nil {
		return nil, err
	}
	burst := opts.Burst
	if burst == 0 {
		burst = maxRate.Count
	}
	if burst < maxRate.Count {
		return nil, fmt.Errorf("%w: burst must be >= rate count, got burst %d for count %d",
			ErrInvalidConfiguration, burst, maxRate.Count)
	}
	return &SlidingLogLimiter{
		calls:  maxRate.Count,
		per:    maxRate.Duration,
		burst:  burst,
		log:    make([]time.Time, 0, burst),
		credit: burst - maxRate.Count,
	}, nil
}

// MustSlidingLogLimiter is a version of NewSlidingLogLimiterWithOpts that panics on error.
func MustSlidingLogLimiter(maxRate Rate, opts SlidingLogLimiterOpts) *SlidingLogLimiter {
	l, err := NewSlidingLogLimiterWithOpts(maxRate, opts)
	if err != nil {
		panic(err)
	}
	return l
}

// Acquire blocks until a pass is granted or ctx is done.
// On ctx expiry the returned error matches ErrAcquireTimeout and the grant log
// is left untouched.
func (l *SlidingLogLimiter) Acquire(ctx context.Context) error {
	l.waiting.Inc()
	defer l.waiting.Dec()

	err := blockingAcquire(ctx, func() (bool, time.Duration, error) {
		ok, retryAfter := l.TryAcquire()
		return ok, retryAfter, nil
	})
	if err != nil {
		l.timeouts.Inc()
	}
	return err
}

// TryAcquire makes a single non-blocking attempt to get a pass.
// On refusal it reports when the oldest logged grant will leave the window.
func (l *SlidingLogLimiter) TryAcquire() (ok bool, retryAfter time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	if len(l.log) == 0 {
		// Fully idle for longer than the window, the burst allowance regenerates.
		l.credit = l.burst - l.calls
	}

	if len(l.log) < l.calls {
		l.record(now)
		return true, 0
	}

	if l.credit > 0 && len(l.log) < l.burst {
		l.credit--
		l.record(now)
		return true, 0
	}

	retryAfter = l.log[0].Add(l.per).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter
}

// Stats returns the current statistics of the limiter.
func (l *SlidingLogLimiter) Stats() Stats {
	return Stats{
		PassesGranted:   l.granted.Load(),
		AcquireTimeouts: l.timeouts.Load(),
		WaitingCallers:  int(l.waiting.Load()),
	}
}

// prune drops the grant timestamps that no longer count against the window.
func (l *SlidingLogLimiter) prune(now time.Time) {
	i := 0
	for i < len(l.log) && now.Sub(l.log[i]) >= l.per {
		i++
	}
	if i > 0 {
		l.log = l.log[:copy(l.log, l.log[i:])]
	}
}

func (l *SlidingLogLimiter) record(now time.Time) {
	l.log = append(l.log, now)
	l.granted.Inc()
}

// logLen reports the number of retained grant timestamps. Used in tests.
func (l *SlidingLogLimiter) logLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.log)
}

// Stats contains statistics of a limiter usage.
type Stats struct {
	// PassesGranted is the total number of granted passes.
	PassesGranted uint64

	// AcquireTimeouts is the total number of Acquire calls that gave up
	// before a pass was granted.
	AcquireTimeouts uint64

	// WaitingCallers is the number of callers currently blocked in Acquire.
	WaitingCallers int
}
