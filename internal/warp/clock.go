package warp

import "time"

// RealClock is the engine's only window onto real wall-clock time.
// Injecting it keeps the anchor math testable without sleeping.
type RealClock interface {
	// Now returns the current real time.
	Now() time.Time
}

// SystemClock delegates to the standard time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
