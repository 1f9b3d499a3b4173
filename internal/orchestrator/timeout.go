package orchestrator

import (
	"context"
	"time"
)

const (
	// Used when neither the properties nor the caller's context carry a
	// budget.
	DefaultTimeoutSeconds = 10.0

	// Subtracted from an outer budget so that the run always ends before the
	// caller's own deadline and unloading is never pre-empted.
	SafetyMarginSeconds = 0.1

	MinTimeoutSeconds = 0.01
)

// GlobalTimeoutSeconds computes the runner's global timeout from an explicit
// budget in milliseconds, or else from the context deadline.
func GlobalTimeoutSeconds(ctx context.Context, timeoutMs int64) float64 {
	if timeoutMs > 0 {
		return withMargin(float64(timeoutMs) / 1000)
	}

	if deadline, ok := ctx.Deadline(); ok {
		return withMargin(time.Until(deadline).Seconds())
	}

	return DefaultTimeoutSeconds
}

func withMargin(seconds float64) float64 {
	return max(MinTimeoutSeconds, seconds-SafetyMarginSeconds)
}
