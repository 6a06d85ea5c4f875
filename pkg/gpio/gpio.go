// Package gpio reads encoder channels from Linux GPIO character
// devices (/dev/gpiochipN) using the uapi v2 line ioctls. It
// implements quadrature.PinPair; other platforms get an explicit
// unsupported error at open time.
package gpio

import "github.com/seanybaggins/es38/pkg/config"

// Pair is a pair of requested GPIO lines, one per encoder channel.
type Pair struct {
	a *Line
	b *Line
}

// OpenPair requests both encoder lines. Invert and bias prefixes in
// the pin specs map to active-low and pull-up/down line flags.
func OpenPair(a, b config.Pin) (*Pair, error) {
	lineA, err := Open(a)
	if err != nil {
		return nil, err
	}
	lineB, err := Open(b)
	if err != nil {
		lineA.Close()
		return nil, err
	}
	return &Pair{a: lineA, b: lineB}, nil
}

// Read samples both channels.
func (p *Pair) Read() (bool, bool, error) {
	a, err := p.a.Value()
	if err != nil {
		return false, false, err
	}
	b, err := p.b.Value()
	if err != nil {
		return false, false, err
	}
	return a, b, nil
}

// Close releases both lines.
func (p *Pair) Close() error {
	errA := p.a.Close()
	errB := p.b.Close()
	if errA != nil {
		return errA
	}
	return errB
}
