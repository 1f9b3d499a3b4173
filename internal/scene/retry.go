package scene

import (
	"context"
	"fmt"
	"time"
)

// Calls f until it succeeds, the timeout elapses or ctx is done, sleeping
// backoff between attempts. A zero timeout makes a single attempt.
func retry[T any](ctx context.Context, timeout, backoff time.Duration, f func(attempt int) (T, error)) (T, error) {
	attempt := 0
	startTime := time.Now()

	for {
		attempt++
		result, err := f(attempt)
		if err == nil {
			return result, nil
		}

		if time.Since(startTime) >= timeout {
			return result, fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("failed after %d attempts: %w", attempt, err)
		case <-time.After(backoff):
		}
	}
}
