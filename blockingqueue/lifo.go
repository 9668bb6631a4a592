/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package blockingqueue

// LIFO is a bounded blocking queue retrieving the most recently inserted item first.
type LIFO[T any] struct {
	*blockingQueue[T]
}

// NewLIFO creates a new blocking LIFO queue (a stack).
// maxSize limits the number of held items, 0 means unbounded.
func NewLIFO[T any](maxSize int) *LIFO[T] {
	return &LIFO[T]{newBlockingQueue[T](&lifoStore[T]{}, maxSize)}
}

// lifoStore is a slice-backed stack. For a stack the retrieval position is the
// top, so pushFront and push coincide.
type lifoStore[T any] struct {
	items []T
}

func (s *lifoStore[T]) push(item T) {
	s.items = append(s.items, item)
}

func (s *lifoStore[T]) pushFront(item T) {
	s.push(item)
}

func (s *lifoStore[T]) pop() T {
	last := len(s.items) - 1
	item := s.items[last]
	var zero T
	s.items[last] = zero
	s.items = s.items[:last]
	return item
}

func (s *lifoStore[T]) len() int {
	return len(s.items)
}
