package executor

import "time"

// durationFromSeconds converts a fractional-seconds clock reading (the
// unit internal/clock.Clock works in) into a time.Duration.
func durationFromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
