package gpio

import "errors"

// FakeRelays records relay writes for test assertions.
type FakeRelays struct {
	// State is the current output of each relay.
	State [2]bool

	// Writes contains every successful Write call.
	Writes [][2]bool

	// WriteError, if set, will be returned by Write.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeRelays creates FakeRelays with both outputs off.
func NewFakeRelays() *FakeRelays {
	return &FakeRelays{}
}

// Outputs returns the current fake outputs.
func (f *FakeRelays) Outputs() (bool, bool) {
	return f.State[0], f.State[1]
}

// Write records the values.
func (f *FakeRelays) Write(ch1, ch2 bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.State = [2]bool{ch1, ch2}
	f.Writes = append(f.Writes, f.State)
	return nil
}

// Close marks the relays as closed.
func (f *FakeRelays) Close() error {
	f.Closed = true
	return nil
}

// FakeButtons is a test double that returns scripted button values.
type FakeButtons struct {
	// Samples contains scripted pressed states to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample represents a single button reading (already in logical form).
type Sample struct {
	B1 bool // true = pressed
	B2 bool
}

// NewFakeButtons creates FakeButtons with the given samples.
func NewFakeButtons(samples []Sample) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButtons) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.B1, sample.B2, nil
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeButtons) Reset() {
	f.index = 0
	f.Closed = false
}
