package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Pin represents a parsed pin specification.
type Pin struct {
	Chip   string // GPIO chip device name (default: "gpiochip0")
	Line   uint32 // Line offset on the chip
	Invert bool   // Inverted logic (! prefix)
	Bias   int    // Bias: 1 = pull-up (^), -1 = pull-down (~), 0 = none
}

// ParsePin parses a pin specification string.
// Format: [^|~][!][chip:]line
// Examples: "17", "!17", "^gpiochip0:17", "~gpiochip1:4"
func ParsePin(desc string) (Pin, error) {
	d := strings.TrimSpace(desc)
	if d == "" {
		return Pin{}, fmt.Errorf("empty pin specification")
	}

	p := Pin{Chip: "gpiochip0"}

	// Bias prefix (^ or ~)
	if d[0] == '^' {
		p.Bias = 1
		d = strings.TrimSpace(d[1:])
	} else if d[0] == '~' {
		p.Bias = -1
		d = strings.TrimSpace(d[1:])
	}

	// Invert prefix (!)
	if len(d) > 0 && d[0] == '!' {
		p.Invert = true
		d = strings.TrimSpace(d[1:])
	}

	// chip:line format
	if idx := strings.Index(d, ":"); idx >= 0 {
		p.Chip = strings.TrimSpace(d[:idx])
		d = strings.TrimSpace(d[idx+1:])
		if p.Chip == "" {
			return Pin{}, fmt.Errorf("empty chip name in specification: %s", desc)
		}
	}

	if d == "" {
		return Pin{}, fmt.Errorf("empty line number in specification: %s", desc)
	}
	line, err := strconv.ParseUint(d, 10, 32)
	if err != nil {
		return Pin{}, fmt.Errorf("invalid line number %q in specification: %s", d, desc)
	}
	p.Line = uint32(line)

	return p, nil
}

// Device returns the character device path for the pin's chip.
func (p Pin) Device() string {
	return "/dev/" + p.Chip
}
