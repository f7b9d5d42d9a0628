package clock

import "time"

// Clock provides the current time. Idle-time checks and login
// timestamps read it, so tests can pin it.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time truncated to whole seconds, the precision
// the account files store.
func (c *RealClock) Now() time.Time {
	return time.Now().Truncate(time.Second)
}
