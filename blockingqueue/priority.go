/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package blockingqueue

import "container/heap"

// Prioritized pairs a value with its retrieval priority, lowest first.
type Prioritized[T any] struct {
	Priority int
	Value    T
}

// Priority is a bounded blocking queue retrieving items in priority order,
// lowest priority number first. Items with equal priority are retrieved in
// insertion order.
type Priority[T any] struct {
	*blockingQueue[Prioritized[T]]
}

// NewPriority creates a new blocking priority queue.
// maxSize limits the number of held items, 0 means unbounded.
func NewPriority[T any](maxSize int) *Priority[T] {
	return &Priority[T]{newBlockingQueue[Prioritized[T]](&priorityStore[T]{}, maxSize)}
}

// priorityStore is a heap of prioritized items. Sequence numbers keep equal
// priorities stable; pushFront assigns a decreasing sequence so a requeued
// item beats everything already stored at the same priority.
type priorityStore[T any] struct {
	h priorityHeap[T]

	nextSeq  int64
	frontSeq int64
}

func (s *priorityStore[T]) push(item Prioritized[T]) {
	s.nextSeq++
	heap.Push(&s.h, priorityEntry[T]{item: item, seq: s.nextSeq})
}

func (s *priorityStore[T]) pushFront(item Prioritized[T]) {
	s.frontSeq--
	heap.Push(&s.h, priorityEntry[T]{item: item, seq: s.frontSeq})
}

func (s *priorityStore[T]) pop() Prioritized[T] {
	return heap.Pop(&s.h).(priorityEntry[T]).item
}

func (s *priorityStore[T]) len() int {
	return s.h.Len()
}

type priorityEntry[T any] struct {
	item Prioritized[T]
	seq  int64
}

type priorityHeap[T any] []priorityEntry[T]

func (h priorityHeap[T]) Len() int { return len(h) }

func (h priorityHeap[T]) Less(i, j int) bool {
	if h[i].item.Priority != h[j].item.Priority {
		return h[i].item.Priority < h[j].item.Priority
	}
	return h[i].seq < h[j].seq
}

func (h priorityHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *priorityHeap[T]) Push(x interface{}) {
	*h = append(*h, x.(priorityEntry[T]))
}

func (h *priorityHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}
