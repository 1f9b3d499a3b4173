package runner

import "time"

// Returns the deadline that binds a case started at start: the earlier of
// the batch-wide global deadline and start+local. A zero global deadline and
// a non-positive local timeout both mean "no limit"; a zero time is returned
// when neither limit applies. local reports whether the case's own timeout
// is the binding one.
func effectiveDeadline(start, global time.Time, localTimeout time.Duration) (deadline time.Time, local bool) {
	if localTimeout <= 0 {
		return global, false
	}

	localDeadline := start.Add(localTimeout)
	if global.IsZero() || localDeadline.Before(global) {
		return localDeadline, true
	}

	return global, false
}
