// Package button turns raw push-button samples into debounced presses.
package button

import "time"

// Sample is one reading of both buttons. True means held down.
type Sample struct {
	Time    time.Time
	Pressed [2]bool
}

// Press is a debounced press of button 1 or 2.
type Press struct {
	Button int
	Time   time.Time
}

// line tracks one button.
type line struct {
	stable       bool
	pending      bool
	hasPending   bool
	pendingSince time.Time
	baselined    bool
}

// Debouncer reports a Press when a button settles in the held state for the
// debounce duration. A button held at startup is taken as the baseline and
// does not produce a press.
type Debouncer struct {
	debounce time.Duration
	lines    [2]line
	presses  [2]int
}

// NewDebouncer returns a Debouncer.
func NewDebouncer(debounce time.Duration) *Debouncer {
	return &Debouncer{debounce: debounce}
}

// Process consumes a sample and returns the presses it completes, button 1 first.
func (d *Debouncer) Process(s Sample) []Press {
	var out []Press
	for i := range d.lines {
		if d.step(&d.lines[i], s.Pressed[i], s.Time) {
			d.presses[i]++
			out = append(out, Press{Button: i + 1, Time: s.Time})
		}
	}
	return out
}

// step reports a released-to-held transition.
func (d *Debouncer) step(l *line, held bool, now time.Time) bool {
	if !l.baselined {
		if !l.hasPending || l.pending != held {
			l.pending, l.hasPending, l.pendingSince = held, true, now
			return false
		}
		if now.Sub(l.pendingSince) >= d.debounce {
			l.stable, l.baselined, l.hasPending = held, true, false
		}
		return false
	}

	if held == l.stable {
		l.hasPending = false
		return false
	}
	if !l.hasPending || l.pending != held {
		l.pending, l.hasPending, l.pendingSince = held, true, now
		return false
	}
	if now.Sub(l.pendingSince) < d.debounce {
		return false
	}

	l.stable, l.hasPending = held, false
	return held
}

// Ready reports whether both buttons have a baseline.
func (d *Debouncer) Ready() bool {
	return d.lines[0].baselined && d.lines[1].baselined
}

// Presses returns the number of presses seen per button.
func (d *Debouncer) Presses() [2]int {
	return d.presses
}
