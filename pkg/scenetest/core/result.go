package core

import (
	"strconv"
	"time"
)

// TestResult is the record produced once per test case when it completes.
type TestResult struct {
	Name     string
	Outcome  Outcome
	Message  string
	Duration time.Duration
}

// NewResult builds a result, clamping negative durations to zero.
func NewResult(name string, outcome Outcome, message string, duration time.Duration) TestResult {
	if duration < 0 {
		duration = 0
	}

	return TestResult{
		Name:     name,
		Outcome:  outcome,
		Message:  message,
		Duration: duration,
	}
}

// DurationSeconds renders the duration as elapsed seconds.
func (r TestResult) DurationSeconds() string {
	return strconv.FormatFloat(r.Duration.Seconds(), 'f', -1, 64)
}
