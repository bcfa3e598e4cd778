// Package actuator reconciles the requested light state with the relays.
package actuator

import (
	"fmt"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/relay-switch/internal/device"
)

// Relays drives the physical outputs.
type Relays interface {
	// Outputs returns the last physical value of each channel.
	Outputs() (ch1, ch2 bool)
	// Write sets both channels.
	Write(ch1, ch2 bool) error
}

// Saver persists the device state.
type Saver interface {
	Save(logIt bool) error
}

// Pusher sends a delta to the outward transport.
type Pusher interface {
	PushDelta(delta string) error
}

// Noter records human-readable activity.
type Noter interface {
	Note(text string)
}

// Actuator applies device.State lights to the relays.
type Actuator struct {
	state  *device.State
	relays Relays
	store  Saver
	push   Pusher
	notes  Noter
}

// New returns an Actuator.
func New(state *device.State, relays Relays, store Saver, push Pusher, notes Noter) *Actuator {
	return &Actuator{state: state, relays: relays, store: store, push: push, notes: notes}
}

// Apply writes the requested lights if any channel differs from the relays.
// With no difference it does nothing at all. notify pushes the new value
// outward when the device is online. Reports whether anything was switched;
// a failed relay write switches nothing and is neither saved nor pushed.
func (a *Actuator) Apply(orderer device.Orderer, notify bool) bool {
	want := [2]bool{a.state.Light1, a.state.Light2}
	have1, have2 := a.relays.Outputs()
	have := [2]bool{have1, have2}

	var diffs []string
	for i := range want {
		if want[i] != have[i] {
			diffs = append(diffs, fmt.Sprintf("\n %d to %t", i+1, want[i]))
		}
	}
	if len(diffs) == 0 {
		return false
	}

	if err := a.relays.Write(want[0], want[1]); err != nil {
		log.Error().Err(err).Str("orderer", string(orderer)).Msg("Relay write failed")
		a.notes.Note(fmt.Sprintf("Switch (%s) failed!", orderer))
		return false
	}

	a.notes.Note(fmt.Sprintf("Switch (%s): %s", orderer, strings.Join(diffs, "")))
	metrics.GetOrCreateCounter(fmt.Sprintf(`relay_switch_actuations_total{orderer=%q}`, orderer)).Inc()

	if err := a.store.Save(true); err != nil {
		log.Warn().Err(err).Msg("Settings not saved after switching")
	}

	if notify && a.state.Online() {
		if err := a.push.PushDelta("val=" + a.state.Value()); err != nil {
			log.Warn().Err(err).Msg("Push failed")
		}
	}
	return true
}
