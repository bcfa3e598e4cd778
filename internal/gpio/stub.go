//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealRelays is not available on non-Linux platforms.
type RealRelays struct{}

// NewRealRelays returns an error on non-Linux platforms.
func NewRealRelays(chipName string, pin1, pin2 int) (*RealRelays, error) {
	return nil, errUnsupported
}

// Outputs always reports both relays off.
func (r *RealRelays) Outputs() (bool, bool) { return false, false }

// Write is not implemented on non-Linux platforms.
func (r *RealRelays) Write(ch1, ch2 bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealRelays) Close() error { return nil }

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(chipName string, pin1, pin2 int) (*RealButtons, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *RealButtons) Read() (bool, bool, error) { return false, false, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (b *RealButtons) Close() error { return nil }
