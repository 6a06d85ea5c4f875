// Package velocity estimates the rotational rate of an encoder from
// the two most recent (angle, timestamp) samples.
//
// The window policy is: Update always slides, even when the new
// timestamp appears to precede the current one, so the caller's most
// recent sample is never silently dropped. Time inversion is detected
// at read time instead — DegreesPerSec and RadiansPerSec return
// ErrArithmeticOverflow for an inverted window and ErrZeroDuration for
// a zero-length one, never a silently wrong rate.
package velocity

import (
	"errors"

	"github.com/seanybaggins/es38/pkg/angle"
	"github.com/seanybaggins/es38/pkg/clock"
)

// ErrArithmeticOverflow is returned by rate computations when the
// window's final timestamp precedes its initial timestamp; the
// unsigned millisecond subtraction would underflow. The caller can
// rebuild a coherent window with NewWindow and the accessors.
var ErrArithmeticOverflow = errors.New("velocity: window time inversion, rate subtraction would overflow")

// ErrZeroDuration is returned by rate computations when both window
// samples carry the same timestamp. The instantaneous rate is
// undefined for a zero-length window.
var ErrZeroDuration = errors.New("velocity: zero duration window, rate is undefined")

// Window holds the two most recent position samples of an encoder.
// It is a value type with no locking; the session that owns it is
// single-writer (see package encoder).
type Window struct {
	initialTime  clock.Millis
	finalTime    clock.Millis
	initialAngle angle.Angle
	finalAngle   angle.Angle
}

// New creates a degenerate window with both samples equal, which
// represents an encoder at rest at the given position and time.
func New(t clock.Millis, a angle.Angle) Window {
	return Window{
		initialTime:  t,
		finalTime:    t,
		initialAngle: a,
		finalAngle:   a,
	}
}

// NewWindow creates a window from explicit endpoints. It exists so a
// caller that received ErrArithmeticOverflow can rebuild a coherent
// window from the accessor values and resume.
func NewWindow(initialTime, finalTime clock.Millis, initialAngle, finalAngle angle.Angle) Window {
	return Window{
		initialTime:  initialTime,
		finalTime:    finalTime,
		initialAngle: initialAngle,
		finalAngle:   finalAngle,
	}
}

// Update slides the window forward: the old final sample becomes the
// initial one and (a, t) becomes the final one. The slide is
// unconditional; out-of-order timestamps surface at read time.
func (w *Window) Update(a angle.Angle, t clock.Millis) {
	w.initialAngle = w.finalAngle
	w.finalAngle = a
	w.initialTime = w.finalTime
	w.finalTime = t
}

// SampleAndAdvance overwrites the final sample with the caller's
// current position and time, returns the window as it stands, and
// then slides it. It serves callers that poll velocity at a different
// cadence than angle updates; the returned snapshot reflects the
// window before the slide.
func (w *Window) SampleAndAdvance(a angle.Angle, t clock.Millis) Window {
	w.finalAngle = a
	w.finalTime = t
	sampled := *w
	w.Update(a, t)
	return sampled
}

// InitialTime returns the timestamp of the older sample.
func (w Window) InitialTime() clock.Millis { return w.initialTime }

// FinalTime returns the timestamp of the newer sample.
func (w Window) FinalTime() clock.Millis { return w.finalTime }

// InitialAngle returns the position of the older sample.
func (w Window) InitialAngle() angle.Angle { return w.initialAngle }

// FinalAngle returns the position of the newer sample.
func (w Window) FinalAngle() angle.Angle { return w.finalAngle }

// deltas returns the angular change across the window and the elapsed
// milliseconds, or an error when the elapsed time is inverted or zero.
func (w Window) deltas() (angle.Angle, clock.Millis, error) {
	deltaAngle := w.finalAngle.Sub(w.initialAngle)
	if w.finalTime < w.initialTime {
		return deltaAngle, 0, ErrArithmeticOverflow
	}
	deltaTime := w.finalTime - w.initialTime
	if deltaTime == 0 {
		return deltaAngle, 0, ErrZeroDuration
	}
	return deltaAngle, deltaTime, nil
}

// DegreesPerSec returns the rate implied by the window in degrees per
// second.
func (w Window) DegreesPerSec() (float64, error) {
	deltaAngle, deltaTime, err := w.deltas()
	if err != nil {
		return 0, err
	}
	return deltaAngle.Degrees() / deltaTime.Seconds(), nil
}

// RadiansPerSec returns the rate implied by the window in radians per
// second.
func (w Window) RadiansPerSec() (float64, error) {
	deltaAngle, deltaTime, err := w.deltas()
	if err != nil {
		return 0, err
	}
	return deltaAngle.Radians() / deltaTime.Seconds(), nil
}
