/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package blockingqueue

// FIFO is a bounded blocking queue retrieving items in insertion order.
type FIFO[T any] struct {
	*blockingQueue[T]
}

// NewFIFO creates a new blocking FIFO queue.
// maxSize limits the number of held items, 0 means unbounded.
func NewFIFO[T any](maxSize int) *FIFO[T] {
	return &FIFO[T]{newBlockingQueue[T](&fifoStore[T]{}, maxSize)}
}

// fifoStore is a slice-backed FIFO with amortized front removal.
type fifoStore[T any] struct {
	items []T
	head  int
}

func (s *fifoStore[T]) push(item T) {
	s.items = append(s.items, item)
}

func (s *fifoStore[T]) pushFront(item T) {
	if s.head > 0 {
		s.head--
		s.items[s.head] = item
		return
	}
	s.items = append([]T{item}, s.items...)
}

func (s *fifoStore[T]) pop() T {
	item := s.items[s.head]
	var zero T
	s.items[s.head] = zero
	s.head++
	if s.head == len(s.items) {
		s.items = s.items[:0]
		s.head = 0
	}
	return item
}

func (s *fifoStore[T]) len() int {
	return len(s.items) - s.head
}
