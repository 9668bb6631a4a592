/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package blockingqueue provides bounded, internally synchronized in-memory
// queues with blocking insert and retrieval, in FIFO, LIFO, and priority
// ordering disciplines.
//
// Blocking operations take a context and give up when it's done. Non-blocking
// Try variants fail immediately with ErrFull or ErrEmpty. Queues also track
// unfinished tasks the way worker pools expect: every successfully inserted
// item counts as an unfinished task until a consumer calls TaskDone, and Join
// blocks until the counter drops to zero.
//
// The queues hold their internal lock only for the duration of a state
// check or mutation, never while a caller is blocked waiting.
package blockingqueue
