package core

import "time"

// RunnerOptions configures a single RunAll/Run invocation. New fields must
// keep their zero value meaning "behave as before".
type RunnerOptions struct {
	// Time limit for the whole invocation, in seconds. A case's own local
	// timeout only applies when it is tighter. Zero disables the limit.
	GlobalTimeoutSeconds float64

	// Maximum number of cases running at the same time. Zero or one runs
	// cases sequentially.
	Parallelism int
}

// GlobalTimeout returns the global limit as a duration, zero when disabled.
func (o RunnerOptions) GlobalTimeout() time.Duration {
	if o.GlobalTimeoutSeconds <= 0 {
		return 0
	}

	return time.Duration(o.GlobalTimeoutSeconds * float64(time.Second))
}

func (o RunnerOptions) Workers() int {
	if o.Parallelism < 1 {
		return 1
	}

	return o.Parallelism
}
