/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides blocking rate limiters that coordinate a group of
// concurrent callers against a shared quota.
//
// A limiter grants "passes": permissions for one operation to proceed. The
// aggregate rate of granted passes across all callers never exceeds the
// configured ceiling. Callers block in Acquire until a pass is available or
// their context is done.
//
// The primary implementation is SlidingLogLimiter, which keeps a bounded log
// of grant timestamps and enforces that no trailing window of the configured
// duration admits more grants than allowed. Alternative algorithms with the
// same Limiter contract are provided on top of well-known implementations:
//   - TokenBucketLimiter (golang.org/x/time/rate)
//   - LeakyBucketLimiter (GCRA, github.com/throttled/throttled)
//   - SlidingWindowLimiter (github.com/RussellLuo/slidingwindow)
//
// Limiters are safe for concurrent use. None of them holds internal locks
// while a caller is waiting; only the check-and-record step is mutually
// exclusive.
package ratelimit
