/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/acronis/go-ratelimitqueue/blockingqueue"
	"github.com/acronis/go-ratelimitqueue/log/logtest"
	"github.com/acronis/go-ratelimitqueue/ratelimit"
)

// QueueTestSuite contains tests for the rate-limited queue composition.
type QueueTestSuite struct {
	suite.Suite
}

func TestQueue(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}

func (ts *QueueTestSuite) TestInvalidConfiguration() {
	_, err := New[int](0, 0, time.Second)
	ts.ErrorIs(err, ratelimit.ErrInvalidConfiguration)

	_, err = NewWithOpts[int](0, 2, time.Second, Opts{Burst: 1})
	ts.ErrorIs(err, ratelimit.ErrInvalidConfiguration)

	_, err = NewWithOpts[int](0, 1, time.Second, Opts{Algorithm: "bogus"})
	ts.ErrorIs(err, ratelimit.ErrInvalidConfiguration)

	_, err = NewWithOpts[int](0, 1, time.Second, Opts{Algorithm: AlgorithmSlidingWindow, Burst: 5})
	ts.ErrorIs(err, ratelimit.ErrInvalidConfiguration)
}

func (ts *QueueTestSuite) TestUnlimitedInserts() {
	q, err := New[int](0, 1, time.Hour)
	ts.Require().NoError(err)

	// The huge window must not slow producers down at all.
	start := time.Now()
	for i := 0; i < 100; i++ {
		ts.Require().NoError(q.Put(context.Background(), i))
	}
	ts.Less(time.Since(start), time.Second)
	ts.Equal(100, q.Len())
}

func (ts *QueueTestSuite) TestDrainIsRateLimited() {
	const (
		items = 5
		calls = 2
		per   = 300 * time.Millisecond
	)

	q, err := New[int](0, calls, per)
	ts.Require().NoError(err)

	ctx := context.Background()
	for i := 0; i < items; i++ {
		ts.Require().NoError(q.Put(ctx, i))
	}

	start := time.Now()
	for i := 0; i < items; i++ {
		item, gErr := q.Get(ctx)
		ts.Require().NoError(gErr)
		ts.Equal(i, item)
	}
	elapsed := time.Since(start)

	// 5 items at 2 per window need to span 2 extra windows.
	ts.GreaterOrEqual(elapsed, 2*per-50*time.Millisecond)
	ts.Less(elapsed, 3*per)
}

func (ts *QueueTestSuite) TestBurstRetrievals() {
	q, err := NewWithOpts[int](0, 3, 400*time.Millisecond, Opts{Burst: 3})
	ts.Require().NoError(err)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		ts.Require().NoError(q.Put(ctx, i))
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, gErr := q.Get(ctx)
		ts.Require().NoError(gErr)
	}
	ts.Less(time.Since(start), 200*time.Millisecond, "the first 3 retrievals must not wait")

	_, gErr := q.Get(ctx)
	ts.Require().NoError(gErr)
	elapsed := time.Since(start)
	ts.GreaterOrEqual(elapsed, 300*time.Millisecond, "the 4th retrieval must wait for the window")
	ts.Less(elapsed, time.Second)
}

func (ts *QueueTestSuite) TestTimedOutRetrievalRequeuesItem() {
	recorder := logtest.NewRecorder()
	q, err := NewWithOpts[string](0, 1, 500*time.Millisecond, Opts{Logger: recorder})
	ts.Require().NoError(err)

	ctx := context.Background()
	ts.Require().NoError(q.Put(ctx, "first"))
	ts.Require().NoError(q.Put(ctx, "second"))

	item, gErr := q.Get(ctx)
	ts.Require().NoError(gErr)
	ts.Equal("first", item)

	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, gErr = q.Get(shortCtx)
	ts.Require().ErrorIs(gErr, ratelimit.ErrAcquireTimeout)

	// The reserved item is back at the retrieval position, nothing is lost.
	ts.Equal(1, q.Len())
	item, gErr = q.Get(ctx)
	ts.Require().NoError(gErr)
	ts.Equal("second", item)

	entry, found := recorder.FindEntry("rate limit pass not acquired, item requeued")
	ts.Require().True(found)
	ts.Equal("warn", entry.Level)
}

func (ts *QueueTestSuite) TestGetTimesOutOnEmptyQueue() {
	q, err := New[int](0, 1, time.Second)
	ts.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, gErr := q.Get(ctx)
	ts.ErrorIs(gErr, blockingqueue.ErrEmpty)
}

func (ts *QueueTestSuite) TestTryGet() {
	q, err := New[int](0, 1, time.Second)
	ts.Require().NoError(err)

	_, gErr := q.TryGet()
	ts.ErrorIs(gErr, blockingqueue.ErrEmpty)

	ts.Require().NoError(q.TryPut(1))
	ts.Require().NoError(q.TryPut(2))

	item, gErr := q.TryGet()
	ts.Require().NoError(gErr)
	ts.Equal(1, item)

	// The rate limit is spent, the next item stays in the queue.
	_, gErr = q.TryGet()
	ts.ErrorIs(gErr, ratelimit.ErrRateLimited)
	ts.Equal(1, q.Len())
}

func (ts *QueueTestSuite) TestBoundedCapacity() {
	q, err := New[int](2, 100, time.Second)
	ts.Require().NoError(err)

	ts.Require().NoError(q.TryPut(1))
	ts.False(q.IsFull())
	ts.Require().NoError(q.TryPut(2))
	ts.True(q.IsFull())
	ts.ErrorIs(q.TryPut(3), blockingqueue.ErrFull)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ts.ErrorIs(q.Put(ctx, 3), blockingqueue.ErrFull)

	ts.Equal(2, q.Cap())
	ts.Equal(2, q.Len())
	ts.False(q.IsEmpty())
}

func (ts *QueueTestSuite) TestLIFOVariant() {
	q, err := NewLIFO[int](0, 100, time.Second)
	ts.Require().NoError(err)

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		ts.Require().NoError(q.Put(ctx, i))
	}
	for i := 3; i >= 1; i-- {
		item, gErr := q.Get(ctx)
		ts.Require().NoError(gErr)
		ts.Equal(i, item)
	}
}

func (ts *QueueTestSuite) TestPriorityVariant() {
	q, err := NewPriority[string](0, 100, time.Second)
	ts.Require().NoError(err)

	ctx := context.Background()
	ts.Require().NoError(q.Put(ctx, blockingqueue.Prioritized[string]{Priority: 2, Value: "second"}))
	ts.Require().NoError(q.Put(ctx, blockingqueue.Prioritized[string]{Priority: 1, Value: "first"}))

	item, gErr := q.Get(ctx)
	ts.Require().NoError(gErr)
	ts.Equal("first", item.Value)
}

func (ts *QueueTestSuite) TestTaskDoneAndJoin() {
	q, err := New[int](0, 100, time.Second)
	ts.Require().NoError(err)

	ctx := context.Background()
	ts.Require().NoError(q.Put(ctx, 1))

	_, gErr := q.Get(ctx)
	ts.Require().NoError(gErr)
	ts.Require().NoError(q.TaskDone())
	ts.Require().NoError(q.Join(ctx))
	ts.ErrorIs(q.TaskDone(), blockingqueue.ErrNoUnfinishedTasks)
}

func (ts *QueueTestSuite) TestAcquirePassSharesTheQuota() {
	q, err := New[int](0, 1, 500*time.Millisecond)
	ts.Require().NoError(err)

	ctx := context.Background()
	ts.Require().NoError(q.AcquirePass(ctx))

	// The pass spent outside the queue delays the next retrieval.
	ts.Require().NoError(q.Put(ctx, 1))
	start := time.Now()
	_, gErr := q.Get(ctx)
	ts.Require().NoError(gErr)
	ts.GreaterOrEqual(time.Since(start), 400*time.Millisecond)
}

func (ts *QueueTestSuite) TestCustomCollaborators() {
	limiter, err := ratelimit.NewTokenBucketLimiter(ratelimit.Rate{Count: 100, Duration: time.Second}, 100)
	ts.Require().NoError(err)

	q := NewWithCollaborators[int](blockingqueue.NewFIFO[int](1), limiter, nil)
	ts.Require().NoError(q.TryPut(7))

	item, gErr := q.TryGet()
	ts.Require().NoError(gErr)
	ts.Equal(7, item)
}

func TestConcurrentWorkersRespectCeiling(t *testing.T) {
	const (
		workers = 4
		items   = 12
		calls   = 3
		per     = 200 * time.Millisecond
	)

	q, err := New[int](0, calls, per)
	require.NoError(t, err)

	for i := 0; i < items; i++ {
		require.NoError(t, q.Put(context.Background(), i))
	}

	// The worker that consumes the last item cancels ctx to release the
	// workers still blocked in Get.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var consumed atomic.Int64
	start := time.Now()
	done := make(chan error, workers)
	for w := 0; w < workers; w++ {
		go func() {
			for {
				if _, err := q.Get(ctx); err != nil {
					if consumed.Load() >= items {
						done <- nil
					} else {
						done <- err
					}
					return
				}
				if consumed.Add(1) == items {
					cancel()
				}
			}
		}()
	}
	for w := 0; w < workers; w++ {
		require.NoError(t, <-done)
	}

	// 12 items at 3 per window span at least 3 extra windows.
	require.GreaterOrEqual(t, time.Since(start), 3*per-50*time.Millisecond)
}
