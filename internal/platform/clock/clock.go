// Package clock abstracts wall-clock access so time-sensitive services can
// be tested deterministically.
package clock

import "time"

// Clock supplies the current instant. Services take a Clock instead of
// calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	At time.Time
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time {
	return f.At
}
