/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package blockingqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrEmpty is returned (possibly wrapped) by retrieval operations when no item
// is available: immediately for the non-blocking ones, after ctx expiry for
// the blocking ones.
var ErrEmpty = errors.New("queue is empty")

// ErrFull is returned (possibly wrapped) by insert operations on a bounded
// queue with no free slot: immediately for the non-blocking ones, after ctx
// expiry for the blocking ones.
var ErrFull = errors.New("queue is full")

// ErrNoUnfinishedTasks is returned by TaskDone when it's called more times
// than there were items inserted.
var ErrNoUnfinishedTasks = errors.New("task done called more times than there were items put")

// Queue is a contract for a bounded blocking queue with task completion tracking.
// Implementations must be safe for concurrent use.
type Queue[T any] interface {
	// Put inserts an item, blocking while the queue is full until a slot
	// frees or ctx is done. The returned error matches ErrFull on ctx expiry.
	Put(ctx context.Context, item T) error

	// TryPut inserts an item only if a slot is immediately available,
	// otherwise it fails with ErrFull.
	TryPut(item T) error

	// Get removes and returns an item, blocking while the queue is empty
	// until an item arrives or ctx is done. The returned error matches
	// ErrEmpty on ctx expiry.
	Get(ctx context.Context) (T, error)

	// TryGet removes and returns an item only if one is immediately
	// available, otherwise it fails with ErrEmpty.
	TryGet() (T, error)

	// Requeue returns an item previously obtained by Get back to the
	// retrieval position, so the next retrieval sees it first. It always
	// succeeds and may transiently exceed the capacity: the item's slot may
	// have been taken by a concurrent Put since the item was removed.
	// The unfinished task counter is not changed, the item still counts.
	Requeue(item T)

	// TaskDone marks one previously retrieved item as fully processed.
	TaskDone() error

	// Join blocks until all inserted items have been marked via TaskDone,
	// or ctx is done.
	Join(ctx context.Context) error

	// Len returns the number of items currently held.
	Len() int

	// Cap returns the maximum number of items the queue holds, 0 for unbounded.
	Cap() int
}

// store is an ordering discipline behind a blocking queue.
// Implementations are not synchronized, the queue's lock guards all calls.
type store[T any] interface {
	push(item T)
	pushFront(item T)
	pop() T
	len() int
}

// blockingQueue implements Queue around a store, with the classic
// condition-variable scheme: waiters re-check the predicate in a loop after
// every wakeup, and context expiry wakes them via Broadcast.
type blockingQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	allDone  *sync.Cond

	st         store[T]
	maxSize    int // 0 means unbounded
	unfinished int
}

func newBlockingQueue[T any](st store[T], maxSize int) *blockingQueue[T] {
	if maxSize < 0 {
		maxSize = 0
	}
	q := &blockingQueue[T]{st: st, maxSize: maxSize}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	q.allDone = sync.NewCond(&q.mu)
	return q
}

// Put inserts an item, blocking while the queue is full.
func (q *blockingQueue[T]) Put(ctx context.Context, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.isFull() {
		if err := q.waitCond(ctx, q.notFull); err != nil {
			return fmt.Errorf("%w: %s", ErrFull, err)
		}
	}
	q.putLocked(item)
	return nil
}

// TryPut inserts an item only if a slot is immediately available.
func (q *blockingQueue[T]) TryPut(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.isFull() {
		return ErrFull
	}
	q.putLocked(item)
	return nil
}

// Get removes and returns an item, blocking while the queue is empty.
func (q *blockingQueue[T]) Get(ctx context.Context) (item T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.st.len() == 0 {
		if err := q.waitCond(ctx, q.notEmpty); err != nil {
			return item, fmt.Errorf("%w: %s", ErrEmpty, err)
		}
	}
	return q.getLocked(), nil
}

// TryGet removes and returns an item only if one is immediately available.
func (q *blockingQueue[T]) TryGet() (item T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.st.len() == 0 {
		return item, ErrEmpty
	}
	return q.getLocked(), nil
}

// Requeue returns an item previously obtained by Get back to the retrieval position.
func (q *blockingQueue[T]) Requeue(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.st.pushFront(item)
	q.notEmpty.Signal()
}

// TaskDone marks one previously retrieved item as fully processed.
func (q *blockingQueue[T]) TaskDone() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.unfinished == 0 {
		return ErrNoUnfinishedTasks
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.allDone.Broadcast()
	}
	return nil
}

// Join blocks until all inserted items have been marked via TaskDone.
func (q *blockingQueue[T]) Join(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.unfinished != 0 {
		if err := q.waitCond(ctx, q.allDone); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of items currently held.
func (q *blockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.st.len()
}

// Cap returns the maximum number of items the queue holds, 0 for unbounded.
func (q *blockingQueue[T]) Cap() int {
	return q.maxSize
}

func (q *blockingQueue[T]) isFull() bool {
	return q.maxSize > 0 && q.st.len() >= q.maxSize
}

func (q *blockingQueue[T]) putLocked(item T) {
	q.st.push(item)
	q.unfinished++
	q.notEmpty.Signal()
}

func (q *blockingQueue[T]) getLocked() T {
	item := q.st.pop()
	q.notFull.Signal()
	return item
}

// waitCond blocks on cond until signaled or ctx is done. Must be called with
// q.mu held; the lock is released for the duration of the wait. A nil error
// only means a wakeup happened, the caller re-checks its predicate in a loop.
func (q *blockingQueue[T]) waitCond(ctx context.Context, cond *sync.Cond) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ctx.Done() == nil {
		cond.Wait()
		return nil
	}
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			cond.Broadcast()
			q.mu.Unlock()
		case <-stop:
		}
	}()
	cond.Wait()
	close(stop)
	return ctx.Err()
}
