/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit_test

import (
	"context"
	"fmt"
	"time"

	"github.com/acronis/go-ratelimitqueue/ratelimit"
)

func ExampleSlidingLogLimiter() {
	limiter, err := ratelimit.NewSlidingLogLimiter(ratelimit.Rate{Count: 2, Duration: time.Second})
	if err != nil {
		fmt.Println(err)
		return
	}

	for i := 0; i < 3; i++ {
		ok, _ := limiter.TryAcquire()
		fmt.Println(ok)
	}

	// Output:
	// true
	// true
	// false
}

func ExampleLimiter() {
	// Several workers calling a shared API may pace themselves with one limiter.
	limiter, err := ratelimit.NewSlidingLogLimiterWithOpts(
		ratelimit.Rate{Count: 5, Duration: time.Second}, ratelimit.SlidingLogLimiterOpts{Burst: 10})
	if err != nil {
		fmt.Println(err)
		return
	}

	callAPI := func(ctx context.Context) error {
		if err := limiter.Acquire(ctx); err != nil {
			return err
		}
		// ... the actual call ...
		return nil
	}

	if err := callAPI(context.Background()); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("called")

	// Output:
	// called
}
