// Package syncer merges inbound documents from peers and the cloud into the
// device state. Only real differences are written; persistence and the
// outward echo follow from what actually changed.
package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/relay-switch/internal/clock"
	"github.com/sweeney/relay-switch/internal/device"
	"github.com/sweeney/relay-switch/internal/schedule"
)

// minTime is the smallest local timestamp accepted from a peer
// (2019-01-01 00:01:01).
const minTime = 1546304461

// maxDrift is the clock discrepancy tolerated before re-adjusting.
const maxDrift = 60 // seconds

// Sun recomputes sunset and sunrise for the local day of now.
type Sun interface {
	Compute(now time.Time)
}

// Engine runs edge evaluation or delays it after dusk.
type Engine interface {
	Evaluate(edge bool) bool
	ArmDusk(minutes int)
}

// Actuator applies the requested lights.
type Actuator interface {
	Apply(orderer device.Orderer, notify bool) bool
}

// Saver persists the device state.
type Saver interface {
	Save(logIt bool) error
}

// Pusher sends a delta outward.
type Pusher interface {
	PushDelta(delta string) error
}

// Detailer renders the detail snapshot.
type Detailer interface {
	Detail() string
}

// Noter records human-readable activity.
type Noter interface {
	Note(text string)
}

// Deps groups the collaborators of a Synchronizer.
type Deps struct {
	State    *device.State
	Rules    *schedule.Holder
	Clock    clock.Clock
	Sun      Sun
	Engine   Engine
	Actuator Actuator
	Store    Saver
	Push     Pusher
	Details  Detailer
	Notes    Noter
}

// Synchronizer applies inbound documents. Not safe for concurrent use.
type Synchronizer struct {
	Deps
}

// New returns a Synchronizer.
func New(d Deps) *Synchronizer {
	return &Synchronizer{Deps: d}
}

// Result summarizes one applied document.
type Result struct {
	SettingsChanged bool
	DetailsChanged  bool
	// Delta is what was (or would have been, when offline) pushed outward.
	Delta string
}

// Apply decodes raw and merges it. peer is true for requests arriving on the
// local network, false for cloud commands. A malformed document is rejected
// as a whole with ErrParse.
func (s *Synchronizer) Apply(raw []byte, peer bool) (Result, error) {
	doc, err := Decode(raw)
	if err != nil {
		s.Notes.Note("Parsing failed!")
		return Result{}, err
	}
	if doc == nil {
		return Result{}, nil
	}
	return s.ApplyDocument(doc, string(raw), peer), nil
}

// ApplyDocument merges an already decoded document. payload is the raw text
// recorded in the activity log when settings change.
func (s *Synchronizer) ApplyDocument(doc Document, payload string, peer bool) Result {
	st := s.State
	var res Result
	var echo device.Delta

	origin := "cloud"
	if peer {
		origin = "peer"
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`relay_switch_sync_documents_total{origin=%q}`, origin)).Inc()

	hasTime := doc.Has("time")

	if doc.Has("offset") {
		if v := doc.Int("offset"); v != st.Offset {
			if s.Clock.IsRunning() && !hasTime {
				s.Clock.Adjust(s.Clock.Now().Add(time.Duration(v-st.Offset) * time.Second))
				s.Notes.Note("Time zone change")
			}
			st.Offset = v
			res.SettingsChanged = true
		}
	}

	if doc.Has("dst") {
		if v := doc.Truthy("dst"); v != st.DST {
			st.DST = v
			res.SettingsChanged = true
			if s.Clock.IsRunning() && !hasTime {
				if v {
					s.Clock.Adjust(s.Clock.Now().Add(time.Hour))
					s.Notes.Note("Summer time")
				} else {
					s.Clock.Adjust(s.Clock.Now().Add(-time.Hour))
					s.Notes.Note("Winter time")
				}
			}
		}
	}

	if hasTime {
		if s.adjustTime(doc.Int64("time")) {
			res.DetailsChanged = true
		}
	}

	if doc.Has("smart") {
		if text := doc.String("smart"); s.Rules.Differs(text) {
			set := s.Rules.Replace(text)
			if peer {
				echo.Add("smart", set.Canonical())
			}
			res.SettingsChanged = true
		}
	}

	if doc.Has("val") {
		if v := doc.String("val"); v != st.Value() {
			st.SetValue(v)
			s.Actuator.Apply(orderer(doc, peer), false)
			if peer {
				echo.Add("val", st.Value())
			}
		}
	}

	if doc.Has("restore") {
		if v := doc.Truthy("restore"); v != st.RestoreOnPowerLoss {
			st.RestoreOnPowerLoss = v
			res.DetailsChanged = true
		}
	}

	if doc.Has("dusk_delay") {
		if v := doc.Int("dusk_delay"); v != st.DuskDelay {
			if st.NextSunset != device.Unknown {
				st.NextSunset += v - st.DuskDelay
			}
			st.DuskDelay = v
			res.DetailsChanged = true
		}
	}

	if doc.Has("dawn_delay") {
		if v := doc.Int("dawn_delay"); v != st.DawnDelay {
			if st.NextSunrise != device.Unknown {
				st.NextSunrise += v - st.DawnDelay
			}
			st.DawnDelay = v
			res.DetailsChanged = true
		}
	}

	if doc.Has("location") {
		if v := doc.String("location"); v != st.Location {
			st.Location = v
			s.Sun.Compute(s.Clock.Now())
			res.DetailsChanged = true
		}
	}

	if doc.Has("sensors") {
		if v := doc.Truthy("sensors"); v != st.AlsoSensors {
			st.AlsoSensors = v
			res.DetailsChanged = true
		}
	}

	if doc.Has("light") {
		s.applyLight(strings.Contains(doc.String("light"), "t"))
	}

	if res.SettingsChanged || res.DetailsChanged {
		s.Notes.Note("Received the data:\n " + payload)
		if err := s.Store.Save(true); err != nil {
			log.Warn().Err(err).Msg("Settings not saved after sync")
		}
	}

	if res.DetailsChanged {
		echo.Add("detail", s.Details.Detail())
	}
	res.Delta = echo.String()

	if st.Online() && !echo.Empty() {
		if err := s.Push.PushDelta(res.Delta); err != nil {
			log.Warn().Err(err).Msg("Push failed")
		}
	}
	return res
}

// adjustTime sets the clock from a UTC epoch. It reports whether the clock
// was started by this call.
func (s *Synchronizer) adjustTime(epoch int64) bool {
	st := s.State
	local := epoch + st.Shift()
	if local <= minTime {
		log.Debug().Int64("time", epoch).Msg("Implausible time ignored")
		return false
	}
	t := time.Unix(local, 0).UTC()

	if s.Clock.IsRunning() {
		drift := t.Unix() - s.Clock.Now().Unix()
		if drift > maxDrift || drift < -maxDrift {
			s.Clock.Adjust(t)
			log.Info().Int64("drift", drift).Msg("Clock re-adjusted")
		}
		return false
	}

	s.Clock.Adjust(t)
	s.Notes.Note("Adjust time")
	st.StartTime = time.Unix(epoch, 0).UTC()
	return s.Clock.IsRunning() && st.Online()
}

// applyLight handles an ambient sensor push.
func (s *Synchronizer) applyLight(dark bool) {
	st := s.State
	wasTwilight := st.Twilight
	if !st.SetLightCondition(dark) {
		return
	}
	log.Info().Stringer("mode", st.Mode()).Bool("dark", dark).Msg("Light condition changed")

	if st.Twilight && !wasTwilight && st.DuskDelay != 0 {
		s.Engine.ArmDusk(st.DuskDelay)
		return
	}
	s.Engine.Evaluate(true)
}

func orderer(doc Document, peer bool) device.Orderer {
	switch {
	case !peer:
		return device.OrdererCloud
	case doc.Has("apk"):
		return device.OrdererApp
	default:
		return device.OrdererLocal
	}
}
