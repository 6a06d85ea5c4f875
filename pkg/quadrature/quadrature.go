// Package quadrature decodes two-channel Gray-code signals from a
// rotary encoder into discrete direction events. The decoders are
// table-driven state machines: each pin sample advances the state, and
// a completed detent emits one Clockwise or CounterClockwise event.
package quadrature

import "fmt"

// Direction is the outcome of decoding one quadrature transition.
type Direction int

const (
	// NoMotion means the sample completed no detent.
	NoMotion Direction = iota

	// Clockwise means one detent of clockwise rotation.
	Clockwise

	// CounterClockwise means one detent of counter-clockwise rotation.
	CounterClockwise
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case NoMotion:
		return "none"
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// PinPair reads the two encoder channels. Implementations are expected
// to be non-blocking; a read error is propagated verbatim to the
// caller of Decode.
type PinPair interface {
	Read() (a, b bool, err error)
}

// Decoder state constants. The low nibble is the table row; the high
// nibble carries a completed direction out of the table.
const (
	rStart  = 0x0
	dirCW   = 0x10
	dirCCW  = 0x20
	dirMask = 0x30
)

// Full step state rows.
const (
	rCWFinal  = 0x1
	rCWBegin  = 0x2
	rCWNext   = 0x3
	rCCWBegin = 0x4
	rCCWFinal = 0x5
	rCCWNext  = 0x6
)

// Half step state rows.
const (
	hsCCWBegin  = 0x1
	hsCWBegin   = 0x2
	hsStartM    = 0x3
	hsCWBeginM  = 0x4
	hsCCWBeginM = 0x5
)

var fullStepTable = [][]int{
	// R_START
	{rStart, rCWBegin, rCCWBegin, rStart},
	// R_CW_FINAL
	{rCWNext, rStart, rCWFinal, rStart | dirCW},
	// R_CW_BEGIN
	{rCWNext, rCWBegin, rStart, rStart},
	// R_CW_NEXT
	{rCWNext, rCWBegin, rCWFinal, rStart},
	// R_CCW_BEGIN
	{rCCWNext, rStart, rCCWBegin, rStart},
	// R_CCW_FINAL
	{rCCWNext, rCCWFinal, rStart, rStart | dirCCW},
	// R_CCW_NEXT
	{rCCWNext, rCCWFinal, rCCWBegin, rStart},
}

var halfStepTable = [][]int{
	// HS_R_START
	{hsStartM, hsCWBegin, hsCCWBegin, rStart},
	// HS_R_CCW_BEGIN
	{hsStartM | dirCCW, rStart, hsCCWBegin, rStart},
	// HS_R_CW_BEGIN
	{hsStartM | dirCW, hsCWBegin, rStart, rStart},
	// HS_R_START_M
	{hsStartM, hsCCWBeginM, hsCWBeginM, rStart},
	// HS_R_CW_BEGIN_M
	{hsStartM, hsStartM, hsCWBeginM, rStart | dirCW},
	// HS_R_CCW_BEGIN_M
	{hsStartM, hsCCWBeginM, hsStartM, rStart | dirCCW},
}

// Decoder turns raw pin samples into Direction events. One detent per
// event for full-step encoders, two events per detent for half-step.
// Not safe for concurrent use; the caller owns sampling cadence.
type Decoder struct {
	pins  PinPair
	table [][]int
	state int
}

// NewDecoder creates a full-step decoder reading from pins.
func NewDecoder(pins PinPair) *Decoder {
	return &Decoder{pins: pins, table: fullStepTable, state: rStart}
}

// NewHalfStepDecoder creates a half-step decoder reading from pins.
func NewHalfStepDecoder(pins PinPair) *Decoder {
	return &Decoder{pins: pins, table: halfStepTable, state: rStart}
}

// Decode samples the pins once and advances the state machine.
// A pin read error leaves the decoder state unchanged.
func (d *Decoder) Decode() (Direction, error) {
	a, b, err := d.pins.Read()
	if err != nil {
		return NoMotion, err
	}
	return d.Feed(a, b), nil
}

// Feed advances the state machine with an already-sampled pin state.
func (d *Decoder) Feed(a, b bool) Direction {
	pinState := 0
	if a {
		pinState |= 1
	}
	if b {
		pinState |= 2
	}
	d.state = d.table[d.state&0xf][pinState]
	switch d.state & dirMask {
	case dirCW:
		return Clockwise
	case dirCCW:
		return CounterClockwise
	}
	return NoMotion
}

// Script replays a canned sequence of directions. It is the direction
// source used by tests and the simulator; after the sequence is
// exhausted every Decode returns NoMotion.
type Script struct {
	seq []Direction
	pos int
}

// NewScript creates a Script over seq. The slice is not copied.
func NewScript(seq []Direction) *Script {
	return &Script{seq: seq}
}

// Decode returns the next scripted direction.
func (s *Script) Decode() (Direction, error) {
	if s.pos >= len(s.seq) {
		return NoMotion, nil
	}
	d := s.seq[s.pos]
	s.pos++
	return d, nil
}

// Remaining reports how many scripted events have not been consumed.
func (s *Script) Remaining() int {
	return len(s.seq) - s.pos
}
