// Package mqtt carries the switch's outward pushes and cloud commands over
// an MQTT broker, with a fake for tests.
package mqtt

import (
	"encoding/json"
	"time"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "idom/switch"

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventReconnected = "RECONNECTED"
	EventOffline     = "OFFLINE"
	EventUpdateCheck = "UPDATE_CHECK"
)

// Topics names the per-device topics under a prefix.
type Topics struct {
	Prefix string
	ID     string
}

func (t Topics) base() string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "/" + t.ID
}

// State is where changed-field deltas are published.
func (t Topics) State() string { return t.base() + "/state" }

// System carries lifecycle events and the retained offline will.
func (t Topics) System() string { return t.base() + "/system" }

// Set is subscribed for cloud commands.
func (t Topics) Set() string { return t.base() + "/set" }

// Publisher is the outward transport.
type Publisher interface {
	// PushDelta publishes a key=value delta of changed fields.
	PushDelta(delta string) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// CheckForUpdate asks the update service to check for new firmware.
	CheckForUpdate()

	// Commands delivers cloud command payloads.
	Commands() <-chan []byte

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string
	RawPayload []byte // sent verbatim when set
	Retained   bool
}

// SystemPayload is the JSON body of a system event.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload renders event, preferring RawPayload when set.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
