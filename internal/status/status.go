// Package status keeps a thread-safe copy of the switch state for readers
// outside the control loop, and renders it as JSON.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs     int64
	DebounceMs int64
	Broker     string
	HTTPAddr   string
	DataDir    string
}

// Snapshot is a point-in-time view of daemon state. It is a value type and
// safe to use after the lock is released.
type Snapshot struct {
	Detail        Detail
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	LogEnabled    bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the last published state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the device detail. Called from the control loop.
func (t *Tracker) Update(d Detail) {
	t.mu.Lock()
	t.snap.Detail = d
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetLogEnabled records whether the activity log is being kept.
func (t *Tracker) SetLogEnabled(enabled bool) {
	t.mu.Lock()
	t.snap.LogEnabled = enabled
	t.mu.Unlock()
}

// Snapshot returns a copy with Now set to the time of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
