// Package angle tracks the angular position of a rotary encoder as a
// free-running count of decoded steps relative to an origin. Counts
// are never normalized or wrapped, so a position can exceed one
// revolution in either direction; the counts-per-revolution scale is
// applied only when the angle is read out in degrees or radians.
package angle

import (
	"fmt"
	"math"

	"github.com/seanybaggins/es38/pkg/quadrature"
)

// DegreesPerRev is the angle scale domain constant.
const DegreesPerRev = 360

// Angle is an encoder position: a signed step count offset from an
// arbitrary origin plus the scale that maps counts to a revolution.
// The counter is a 32-bit accumulator, wide enough that one count per
// decoded transition cannot overflow it within a session lifetime.
// The zero value is unusable; construct with New.
type Angle struct {
	counts       int32
	countsPerRev uint16
}

// New creates an Angle with the given scale, displaced from the origin
// by originOffsetCounts. countsPerRev is not validated here; a zero
// scale only surfaces at read time, as the division does.
func New(countsPerRev uint16, originOffsetCounts int16) Angle {
	return Angle{
		counts:       int32(originOffsetCounts),
		countsPerRev: countsPerRev,
	}
}

// Update moves the position by one decoded step. CounterClockwise
// increments the counter, Clockwise decrements it, NoMotion leaves it
// unchanged.
func (a *Angle) Update(d quadrature.Direction) {
	switch d {
	case quadrature.CounterClockwise:
		a.counts++
	case quadrature.Clockwise:
		a.counts--
	}
}

// Counts returns the raw step count relative to the origin.
func (a Angle) Counts() int32 {
	return a.counts
}

// CountsPerRev returns the scale of this angle.
func (a Angle) CountsPerRev() uint16 {
	return a.countsPerRev
}

// Degrees returns the position in degrees.
func (a Angle) Degrees() float64 {
	return float64(a.counts) * DegreesPerRev / float64(a.countsPerRev)
}

// Radians returns the position in radians.
func (a Angle) Radians() float64 {
	return a.Degrees() * math.Pi / 180.0
}

// Sub returns the signed difference a - other as a new Angle.
//
// Both operands must share the same counts-per-revolution scale.
// A mismatch means two angles from different encoders (or different
// decode modes) were mixed, which is a logic bug in the caller, not a
// runtime condition; Sub panics rather than returning an error.
func (a Angle) Sub(other Angle) Angle {
	if a.countsPerRev != other.countsPerRev {
		panic(fmt.Sprintf(
			"angle: subtracting mismatched scales (%d vs %d counts/rev)",
			a.countsPerRev, other.countsPerRev))
	}
	return Angle{
		counts:       a.counts - other.counts,
		countsPerRev: a.countsPerRev,
	}
}
