package clock

import "time"

// Fake is a test double holding a fixed local time.
type Fake struct {
	T       time.Time
	Running bool

	// Adjustments records every Adjust call.
	Adjustments []time.Time
}

// NewFake returns a running fake clock set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{T: t.UTC(), Running: true}
}

// Now returns the current fake time.
func (f *Fake) Now() time.Time {
	return f.T
}

// IsRunning returns f.Running.
func (f *Fake) IsRunning() bool {
	return f.Running
}

// Adjust sets the fake time and marks the clock running.
func (f *Fake) Adjust(t time.Time) {
	f.T = t.UTC()
	f.Running = true
	f.Adjustments = append(f.Adjustments, f.T)
}

// Advance moves the fake time forward.
func (f *Fake) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
