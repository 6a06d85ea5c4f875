//go:build !linux

package gpio

import (
	"errors"

	"github.com/seanybaggins/es38/pkg/config"
)

var errUnsupported = errors.New("gpio: character device access requires linux")

// Line is one requested GPIO input line.
type Line struct{}

// Open fails: GPIO character devices exist only on Linux.
func Open(pin config.Pin) (*Line, error) {
	return nil, errUnsupported
}

// Value is unreachable on this platform.
func (l *Line) Value() (bool, error) {
	return false, errUnsupported
}

// Close is unreachable on this platform.
func (l *Line) Close() error {
	return errUnsupported
}
