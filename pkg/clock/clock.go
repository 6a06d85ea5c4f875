// Package clock defines the millisecond time domain the encoder core
// operates in. The core never reads wall time itself; every timestamp
// is supplied by the caller as a monotonic millisecond count since an
// arbitrary epoch, which keeps the math testable with synthetic time.
package clock

import "time"

// Millis is a monotonic millisecond count since an arbitrary epoch.
// It is deliberately 32 bits wide, matching the millisecond tick
// counters found on microcontrollers; it wraps after ~49.7 days.
type Millis uint32

// Duration converts a millisecond delta to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Seconds converts a millisecond delta to fractional seconds.
func (m Millis) Seconds() float64 {
	return float64(m) / 1000.0
}

// Source produces Millis timestamps from the host monotonic clock.
// It exists for deployments that drive an encoder session from a
// polling loop; libraries and tests should pass timestamps directly.
type Source struct {
	start time.Time
}

// NewSource creates a Source whose epoch is the moment of the call.
func NewSource() *Source {
	return &Source{start: time.Now()}
}

// Now returns milliseconds elapsed since the Source epoch.
func (s *Source) Now() Millis {
	return Millis(time.Since(s.start) / time.Millisecond)
}
