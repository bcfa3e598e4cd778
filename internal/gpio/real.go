//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealRelays drives relays on actual hardware using the Linux GPIO character device.
type RealRelays struct {
	chip  *gpiocdev.Chip
	lines [2]*gpiocdev.Line
	state [2]bool
}

// NewRealRelays requests both relay lines as outputs, initially off.
func NewRealRelays(chipName string, pin1, pin2 int) (*RealRelays, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealRelays{chip: chip}
	for i, pin := range []int{pin1, pin2} {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request relay %d pin %d: %w", i+1, pin, err)
		}
		r.lines[i] = line
	}
	return r, nil
}

// Outputs returns the last written values.
func (r *RealRelays) Outputs() (bool, bool) {
	return r.state[0], r.state[1]
}

// Write sets both relay lines.
func (r *RealRelays) Write(ch1, ch2 bool) error {
	for i, on := range []bool{ch1, ch2} {
		v := 0
		if on {
			v = 1
		}
		if err := r.lines[i].SetValue(v); err != nil {
			return fmt.Errorf("write relay %d: %w", i+1, err)
		}
		r.state[i] = on
	}
	return nil
}

// Close drives the relays low and releases the lines.
func (r *RealRelays) Close() error {
	var errs []error
	for i, line := range r.lines {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release relay %d: %w", i+1, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay %d: %w", i+1, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealButtons reads buttons from actual hardware.
type RealButtons struct {
	chip  *gpiocdev.Chip
	lines [2]*gpiocdev.Line
}

// NewRealButtons requests both button lines as inputs with pull-up.
func NewRealButtons(chipName string, pin1, pin2 int) (*RealButtons, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealButtons{chip: chip}
	for i, pin := range []int{pin1, pin2} {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request button %d pin %d: %w", i+1, pin, err)
		}
		b.lines[i] = line
	}
	return b, nil
}

// Read returns pressed states. Inverts raw GPIO: raw low (0) = pressed.
func (b *RealButtons) Read() (bool, bool, error) {
	var pressed [2]bool
	for i, line := range b.lines {
		raw, err := line.Value()
		if err != nil {
			return false, false, fmt.Errorf("read button %d: %w", i+1, err)
		}
		pressed[i] = raw == 0
	}
	return pressed[0], pressed[1], nil
}

// Close releases the button lines.
func (b *RealButtons) Close() error {
	var errs []error
	for i, line := range b.lines {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button %d: %w", i+1, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
