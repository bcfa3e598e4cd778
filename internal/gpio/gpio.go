// Package gpio drives the relay outputs and reads the push buttons.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Relays drives the two relay outputs.
type Relays interface {
	// Outputs returns the last value written to each relay.
	Outputs() (ch1, ch2 bool)

	// Write sets both relays; true energizes the coil.
	Write(ch1, ch2 bool) error

	// Close releases GPIO resources.
	Close() error
}

// Buttons reads the two push buttons.
type Buttons interface {
	// Read returns whether each button is currently held down.
	// The raw inputs are pulled up: raw low = pressed.
	Read() (b1, b2 bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultRelay1  = 17
	DefaultRelay2  = 27
	DefaultButton1 = 23
	DefaultButton2 = 24
)
