package core

import (
	"context"
	"time"
)

// TestCase is the contract every discoverable test case satisfies. Cases are
// owned by the environment that hosts them; the runner only drives them.
type TestCase interface {
	Named

	// Begin asynchronous execution. Implementations return as soon as the
	// case is running. An error means the case never started.
	Start(ctx context.Context) error

	// Closed once the case has a result, whatever the outcome. Waiting on it
	// suspends the caller; IsDone polls it without blocking.
	Done() <-chan struct{}

	// Forcibly end execution. A case that has not completed yet finalises
	// with TimedOut when cause matches ErrTimedOut and with Error otherwise.
	// Cancelling a completed case is a no-op.
	Cancel(cause error)

	// Returns ErrNotCompleted until the case has completed.
	Result() (TestResult, error)
}

// LocalTimeouter is implemented by test cases that override the global
// timeout with their own, tighter, limit. Zero means no override.
type LocalTimeouter interface {
	LocalTimeout() time.Duration
}

// Returns the case's local timeout, or zero when it does not declare one.
func LocalTimeoutOf(tc TestCase) time.Duration {
	if lt, ok := tc.(LocalTimeouter); ok && lt.LocalTimeout() > 0 {
		return lt.LocalTimeout()
	}

	return 0
}

// IsDone reports whether the case has completed without blocking.
func IsDone(tc TestCase) bool {
	select {
	case <-tc.Done():
		return true
	default:
		return false
	}
}
