//go:build linux

package gpio

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/seanybaggins/es38/pkg/config"
)

// GPIO character device uapi v2 constants
const (
	gpioV2GetLineIoctl       = 0xc250b407 // GPIO_V2_GET_LINE_IOCTL
	gpioV2LineGetValuesIoctl = 0xc010b40e // GPIO_V2_LINE_GET_VALUES_IOCTL

	gpioV2LineFlagActiveLow    = 1 << 1
	gpioV2LineFlagInput        = 1 << 2
	gpioV2LineFlagBiasPullUp   = 1 << 8
	gpioV2LineFlagBiasPullDown = 1 << 9
)

// Structures mirroring struct gpio_v2_line_* from linux/gpio.h.
type gpioV2LineAttribute struct {
	id      uint32
	padding uint32
	value   uint64
}

type gpioV2LineConfigAttribute struct {
	attr gpioV2LineAttribute
	mask uint64
}

type gpioV2LineConfig struct {
	flags    uint64
	numAttrs uint32
	padding  [5]uint32
	attrs    [10]gpioV2LineConfigAttribute
}

type gpioV2LineRequest struct {
	offsets         [64]uint32
	consumer        [32]byte
	config          gpioV2LineConfig
	numLines        uint32
	eventBufferSize uint32
	padding         [5]uint32
	fd              int32
}

type gpioV2LineValues struct {
	bits uint64
	mask uint64
}

// Line is one requested GPIO input line.
type Line struct {
	pin config.Pin
	fd  int
}

// lineFlags maps a configured pin to the uapi line request flags.
func lineFlags(pin config.Pin) uint64 {
	flags := uint64(gpioV2LineFlagInput)
	if pin.Invert {
		flags |= gpioV2LineFlagActiveLow
	}
	switch pin.Bias {
	case 1:
		flags |= gpioV2LineFlagBiasPullUp
	case -1:
		flags |= gpioV2LineFlagBiasPullDown
	}
	return flags
}

// Open requests the line described by pin as an input.
func Open(pin config.Pin) (*Line, error) {
	chipFd, err := unix.Open(pin.Device(), unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("gpio: opening %s: %w", pin.Device(), err)
	}
	// The chip fd is only needed to issue the line request.
	defer unix.Close(chipFd)

	req := gpioV2LineRequest{
		numLines: 1,
	}
	req.offsets[0] = pin.Line
	req.config.flags = lineFlags(pin)
	copy(req.consumer[:], "es38")

	if err := ioctl(chipFd, gpioV2GetLineIoctl, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("gpio: requesting %s line %d: %w", pin.Chip, pin.Line, err)
	}

	return &Line{pin: pin, fd: int(req.fd)}, nil
}

// Value samples the line. Active-low inversion is applied by the
// kernel, so the returned level is already the logical one.
func (l *Line) Value() (bool, error) {
	values := gpioV2LineValues{mask: 1}
	if err := ioctl(l.fd, gpioV2LineGetValuesIoctl, unsafe.Pointer(&values)); err != nil {
		return false, fmt.Errorf("gpio: reading %s line %d: %w", l.pin.Chip, l.pin.Line, err)
	}
	return values.bits&1 != 0, nil
}

// Close releases the line request.
func (l *Line) Close() error {
	return unix.Close(l.fd)
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
