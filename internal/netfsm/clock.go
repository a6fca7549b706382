package netfsm

import "time"

// Clock reports elapsed time on a monotonic timeline. Only differences
// between readings are meaningful.
type Clock interface {
	Now() time.Duration
}

// MonotonicClock measures time since it was created using the runtime's
// monotonic clock, so wall-clock jumps (NTP sync after Wi-Fi comes up)
// do not disturb backoff.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock starts a clock at zero.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now implements Clock.
func (c *MonotonicClock) Now() time.Duration {
	return time.Since(c.start)
}
