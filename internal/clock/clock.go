// Package clock provides the real-time clock the scheduler reads.
//
// The clock keeps local wall time (UTC shifted by the device offset and DST)
// in a time.Time whose location is UTC, the way a battery-backed RTC chip
// holds a bare date with no zone attached.
package clock

import (
	"sync"
	"time"
)

// Clock is a settable real-time clock.
type Clock interface {
	// Now returns local wall time. Meaningless unless IsRunning.
	Now() time.Time
	// IsRunning reports whether the clock has ever been set.
	IsRunning() bool
	// Adjust sets local wall time and starts the clock.
	Adjust(t time.Time)
}

// Soft is a software RTC layered on the system clock.
type Soft struct {
	mu      sync.Mutex
	system  func() time.Time
	delta   time.Duration
	running bool
}

// NewSoft returns a stopped clock driven by the given system time source.
func NewSoft(system func() time.Time) *Soft {
	if system == nil {
		system = time.Now
	}
	return &Soft{system: system}
}

// Now returns local wall time.
func (c *Soft) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.system().UTC().Add(c.delta).Truncate(time.Second)
}

// IsRunning reports whether the clock was ever adjusted.
func (c *Soft) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Adjust sets local wall time.
func (c *Soft) Adjust(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delta = t.UTC().Sub(c.system().UTC())
	c.running = true
}

// MinuteOfDay returns hour*60+minute of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
