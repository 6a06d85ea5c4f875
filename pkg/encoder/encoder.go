// Package encoder composes angle tracking and velocity estimation
// into a per-pulse session driver for one quadrature rotary encoder.
//
// A Session is single-writer and does no locking of its own. When
// updates are driven from an interrupt-style context and read from
// another goroutine, the caller owns the critical-section discipline
// (snapshot under its own lock); the session has no knowledge of the
// surrounding scheduling environment and performs no retries.
package encoder

import (
	"github.com/seanybaggins/es38/pkg/angle"
	"github.com/seanybaggins/es38/pkg/clock"
	"github.com/seanybaggins/es38/pkg/quadrature"
	"github.com/seanybaggins/es38/pkg/velocity"
)

// DirectionSource decodes the next quadrature transition. The decoder
// in package quadrature implements it; tests use quadrature.Script.
type DirectionSource interface {
	Decode() (quadrature.Direction, error)
}

// Session owns the position and rate state for one encoder.
type Session struct {
	source DirectionSource
	angle  angle.Angle
	window velocity.Window
}

// NewSession creates a session assumed to be at rest at startAngle
// when startTime was sampled.
func NewSession(source DirectionSource, startAngle angle.Angle, startTime clock.Millis) *Session {
	return &Session{
		source: source,
		angle:  startAngle,
		window: velocity.New(startTime, startAngle),
	}
}

// OnPulse drives one decoded transition through the session: it asks
// the source for a direction, applies it to the angle, and slides the
// velocity window to the new sample. The decoded direction is
// returned for diagnostics.
//
// A decode error is propagated verbatim and leaves both angle and
// window untouched; the caller may simply retry on the next event.
// A NoMotion decode still slides the window — same angle, newer
// timestamp — so the implied rate decays to zero while the shaft is
// idle.
func (s *Session) OnPulse(t clock.Millis) (quadrature.Direction, error) {
	direction, err := s.source.Decode()
	if err != nil {
		return quadrature.NoMotion, err
	}
	s.angle.Update(direction)
	s.window.Update(s.angle, t)
	return direction, nil
}

// Angle returns the current position.
func (s *Session) Angle() angle.Angle {
	return s.angle
}

// Window returns the current velocity window.
func (s *Session) Window() velocity.Window {
	return s.window
}

// SampleVelocity records the session's current angle at time t,
// returns the velocity window implied by the outgoing samples, and
// advances the window. It lets velocity be polled at a fixed period
// independent of the pulse cadence.
func (s *Session) SampleVelocity(t clock.Millis) velocity.Window {
	return s.window.SampleAndAdvance(s.angle, t)
}
