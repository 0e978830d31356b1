//go:build linux

package relay

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIODriver drives relays through the Linux GPIO character device.
// Relay boards on this strip are active-high.
type GPIODriver struct {
	chip  *gpiocdev.Chip
	lines [4]*gpiocdev.Line
}

// NewGPIODriver requests the four relay pins as outputs, all OFF.
func NewGPIODriver(pins [4]int) (*GPIODriver, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	d := &GPIODriver{chip: chip}
	for i, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
		}
		d.lines[i] = line
	}
	return d, nil
}

// Set drives one relay output.
func (d *GPIODriver) Set(id int, on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := d.lines[id-1].SetValue(v); err != nil {
		return fmt.Errorf("set relay %d: %w", id, err)
	}
	return nil
}

// Close drives every relay OFF and releases GPIO resources. Loads must not
// stay energized across a daemon restart.
func (d *GPIODriver) Close() error {
	var errs []error
	for i, line := range d.lines {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear relay %d: %w", i+1, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay %d: %w", i+1, err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
