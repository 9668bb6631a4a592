/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/acronis/go-ratelimitqueue/blockingqueue"
	"github.com/acronis/go-ratelimitqueue/log"
	"github.com/acronis/go-ratelimitqueue/ratelimit"
)

// Algorithm represents a type for specifying the rate limiting algorithm.
type Algorithm string

// Supported rate limiting algorithms.
const (
	// AlgorithmSlidingLog enforces the ceiling over an exact log of grant
	// timestamps. It's the default.
	AlgorithmSlidingLog Algorithm = "sliding_log"

	// AlgorithmTokenBucket spaces grants evenly via a continuously refilling
	// token bucket (golang.org/x/time/rate).
	AlgorithmTokenBucket Algorithm = "token_bucket"

	// AlgorithmLeakyBucket is GCRA, a leaky bucket variant
	// (github.com/throttled/throttled).
	AlgorithmLeakyBucket Algorithm = "leaky_bucket"

	// AlgorithmSlidingWindow approximates the ceiling with counters over two
	// adjacent fixed windows (github.com/RussellLuo/slidingwindow).
	// It has no burst allowance.
	AlgorithmSlidingWindow Algorithm = "sliding_window"
)

// Opts represents options for the rate-limited queue.
type Opts struct {
	// Burst is the number of passes grantable in rapid succession after the
	// limiter has been idle, 0 means "equal to calls".
	// Not supported by AlgorithmSlidingWindow.
	Burst int

	// Fuzz adds a random extra wait in [0, Fuzz) to retrievals that would
	// otherwise proceed without any waiting, de-synchronizing workers started
	// at the same moment. 0 disables fuzzing.
	Fuzz time.Duration

	// Algorithm selects the rate limiting algorithm, AlgorithmSlidingLog by default.
	Algorithm Algorithm

	// Logger is used to log waits, timeouts, and requeues. Disabled by default.
	Logger log.FieldLogger

	// MetricsCollector collects metrics of the rate limiter usage. Null by default.
	MetricsCollector ratelimit.MetricsCollector
}

// Queue is a rate-limited blocking queue. It composes one rate limiter
// (exclusively owned) with one underlying blocking queue. Inserts delegate to
// the underlying queue unchanged; retrievals additionally acquire a rate limit
// pass before returning the item.
//
// The collaborators lock independently and are never invoked while holding
// each other's locks, so the composition cannot deadlock on lock ordering.
type Queue[T any] struct {
	limiter ratelimit.Limiter
	queue   blockingqueue.Queue[T]
	logger  log.FieldLogger
}

// New creates a rate-limited FIFO queue allowing calls retrievals per the
// given window. maxSize bounds the underlying queue, 0 means unbounded.
func New[T any](maxSize, calls int, per time.Duration) (*Queue[T], error) {
	return NewWithOpts[T](maxSize, calls, per, Opts{})
}

// NewWithOpts is a configurable version of New.
func NewWithOpts[T any](maxSize, calls int, per time.Duration, opts Opts) (*Queue[T], error) {
	limiter, err := makeLimiter(calls, per, opts)
	if err != nil {
		return nil, err
	}
	return NewWithCollaborators[T](blockingqueue.NewFIFO[T](maxSize), limiter, opts.Logger), nil
}

// NewLIFO creates a rate-limited LIFO queue.
func NewLIFO[T any](maxSize, calls int, per time.Duration) (*Queue[T], error) {
	return NewLIFOWithOpts[T](maxSize, calls, per, Opts{})
}

// NewLIFOWithOpts is a configurable version of NewLIFO.
func NewLIFOWithOpts[T any](maxSize, calls int, per time.Duration, opts Opts) (*Queue[T], error) {
	limiter, err := makeLimiter(calls, per, opts)
	if err != nil {
		return nil, err
	}
	return NewWithCollaborators[T](blockingqueue.NewLIFO[T](maxSize), limiter, opts.Logger), nil
}

// NewPriority creates a rate-limited priority queue. Items are
// blockingqueue.Prioritized values retrieved lowest priority number first.
func NewPriority[T any](maxSize, calls int, per time.Duration) (*Queue[blockingqueue.Prioritized[T]], error) {
	return NewPriorityWithOpts[T](maxSize, calls, per, Opts{})
}

// NewPriorityWithOpts is a configurable version of NewPriority.
func NewPriorityWithOpts[T any](
	maxSize, calls int, per time.Duration, opts Opts,
) (*Queue[blockingqueue.Prioritized[T]], error) {
	limiter, err := makeLimiter(calls, per, opts)
	if err != nil {
		return nil, err
	}
	return NewWithCollaborators[blockingqueue.Prioritized[T]](
		blockingqueue.NewPriority[T](maxSize), limiter, opts.Logger), nil
}

// NewWithCollaborators composes an externally constructed blocking queue and
// rate limiter. The limiter must not be shared with other components, or the
// queue's retrieval rate will be reduced by the other users' passes.
// logger may be nil.
func NewWithCollaborators[T any](
	queue blockingqueue.Queue[T], limiter ratelimit.Limiter, logger log.FieldLogger,
) *Queue[T] {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Queue[T]{limiter: limiter, queue: queue, logger: logger}
}

// Put inserts an item, blocking while the underlying queue is full until a
// slot frees or ctx is done. Inserts are not rate-limited.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	return q.queue.Put(ctx, item)
}

// TryPut inserts an item only if a slot is immediately available,
// otherwise it fails with blockingqueue.ErrFull.
func (q *Queue[T]) TryPut(item T) error {
	return q.queue.TryPut(item)
}

// Get retrieves an item: it blocks until an item is available in the
// underlying queue, then blocks until the rate limiter grants a pass.
//
// If ctx is done while waiting for an item, the error matches
// blockingqueue.ErrEmpty. If ctx is done while waiting for a pass, the
// reserved item is requeued at the retrieval position of the underlying queue
// and the error matches ratelimit.ErrAcquireTimeout. The same ctx bounds both
// stages, so the total wait may reach twice its deadline in the worst case.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	var zero T
	item, err := q.queue.Get(ctx)
	if err != nil {
		return zero, err
	}
	start := time.Now()
	if err := q.limiter.Acquire(ctx); err != nil {
		q.queue.Requeue(item)
		q.logger.Warn("rate limit pass not acquired, item requeued",
			log.Error(err), log.Duration("wait_time", time.Since(start)))
		return zero, err
	}
	if waitTime := time.Since(start); waitTime > 0 {
		q.logger.Debug("item retrieved", log.Duration("rate_limit_wait_time", waitTime))
	}
	return item, nil
}

// TryGet retrieves an item without blocking: it fails with
// blockingqueue.ErrEmpty if no item is immediately available, and with an
// error matching ratelimit.ErrRateLimited if no pass is immediately grantable.
// In the latter case the reserved item is requeued.
func (q *Queue[T]) TryGet() (T, error) {
	var zero T
	item, err := q.queue.TryGet()
	if err != nil {
		return zero, err
	}
	if ok, retryAfter := q.limiter.TryAcquire(); !ok {
		q.queue.Requeue(item)
		return zero, fmt.Errorf("%w, retry after %s", ratelimit.ErrRateLimited, retryAfter)
	}
	return item, nil
}

// AcquirePass acquires a rate limit pass without touching the queue. It lets
// a caller pace operations that bypass the queue against the same quota.
func (q *Queue[T]) AcquirePass(ctx context.Context) error {
	return q.limiter.Acquire(ctx)
}

// TaskDone marks one previously retrieved item as fully processed.
func (q *Queue[T]) TaskDone() error {
	return q.queue.TaskDone()
}

// Join blocks until all inserted items have been retrieved and marked via
// TaskDone, or ctx is done.
func (q *Queue[T]) Join(ctx context.Context) error {
	return q.queue.Join(ctx)
}

// Len returns the number of items currently held by the underlying queue.
func (q *Queue[T]) Len() int {
	return q.queue.Len()
}

// Cap returns the maximum number of items the underlying queue holds, 0 for unbounded.
func (q *Queue[T]) Cap() int {
	return q.queue.Cap()
}

// IsEmpty reports whether the underlying queue holds no items.
func (q *Queue[T]) IsEmpty() bool {
	return q.queue.Len() == 0
}

// IsFull reports whether the underlying queue has no free slot.
func (q *Queue[T]) IsFull() bool {
	return q.queue.Cap() > 0 && q.queue.Len() >= q.queue.Cap()
}

func makeLimiter(calls int, per time.Duration, opts Opts) (ratelimit.Limiter, error) {
	maxRate := ratelimit.Rate{Count: calls, Duration: per}

	var limiter ratelimit.Limiter
	var err error
	switch opts.Algorithm {
	case AlgorithmSlidingLog, "":
		limiter, err = ratelimit.NewSlidingLogLimiterWithOpts(maxRate, ratelimit.SlidingLogLimiterOpts{Burst: opts.Burst})
	case AlgorithmTokenBucket:
		limiter, err = ratelimit.NewTokenBucketLimiter(maxRate, opts.Burst)
	case AlgorithmLeakyBucket:
		limiter, err = ratelimit.NewLeakyBucketLimiter(maxRate, opts.Burst)
	case AlgorithmSlidingWindow:
		if opts.Burst != 0 && opts.Burst != calls {
			return nil, fmt.Errorf("%w: algorithm %q doesn't support burst",
				ratelimit.ErrInvalidConfiguration, opts.Algorithm)
		}
		limiter, err = ratelimit.NewSlidingWindowLimiter(maxRate)
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ratelimit.ErrInvalidConfiguration, opts.Algorithm)
	}
	if err != nil {
		return nil, err
	}

	if opts.Fuzz > 0 {
		if limiter, err = ratelimit.NewFuzzedLimiter(limiter, opts.Fuzz); err != nil {
			return nil, err
		}
	}
	if opts.MetricsCollector != nil {
		limiter = ratelimit.NewInstrumentedLimiter(limiter, opts.MetricsCollector)
	}
	return limiter, nil
}
