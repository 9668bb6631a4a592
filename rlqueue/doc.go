/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package rlqueue provides a rate-limited blocking queue: a producer/consumer
// container where any number of concurrent workers retrieve items, while the
// aggregate rate of successful retrievals across all of them stays under a
// configurable ceiling.
//
// Inserts are not limited. A retrieval first reserves an item from the
// underlying blocking queue, then acquires a pass from the rate limiter, and
// only then returns the item. If the pass is not acquired before the caller's
// context is done, the reserved item is returned to the retrieval position of
// the underlying queue, so no item is ever lost to a timeout.
//
// FIFO, LIFO, and priority ordering disciplines are available; they differ
// only in the underlying queue and share identical rate limiting behavior.
// Custom collaborators can be composed via NewWithCollaborators.
package rlqueue
