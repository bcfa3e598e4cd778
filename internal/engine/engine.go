// Package engine evaluates the schedule against the clock, twilight and
// cloudiness, and switches the lights when a rule activates.
package engine

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

// cooldown is the minimum time between two poll activations of one rule.
const cooldown = 60 // seconds

// Minutes of day with side effects.
const (
	summerTimeMinute  = 120
	winterTimeMinute  = 180
	updateCheckMinute = 61
	sunRecheckAfter   = 51
)

// Sun recomputes sunset and sunrise for the local day of now.
type Sun interface {
	Compute(now time.Time)
}

// Actuator applies the requested lights.
type Actuator interface {
	Apply(orderer device.Orderer, notify bool) bool
}

// Saver persists the device state.
type Saver interface {
	Save(logIt bool) error
}

// UpdateChecker asks for a firmware update check.
type UpdateChecker interface {
	CheckForUpdate()
}

// Noter records human-readable activity.
type Noter interface {
	Note(text string)
}

// Engine owns rule evaluation. It is not safe for concurrent use.
type Engine struct {
	state    *device.State
	rules    *schedule.Holder
	clock    clock.Clock
	sun      Sun
	actuator Actuator
	store    Saver
	updates  UpdateChecker
	notes    Noter

	countdown *Countdown

	// last poll activation per rule id, valid for firedFor only
	fired    map[int]int64
	firedFor *schedule.Set
}

// Deps groups the collaborators of an Engine.
type Deps struct {
	State    *device.State
	Rules    *schedule.Holder
	Clock    clock.Clock
	Sun      Sun
	Actuator Actuator
	Store    Saver
	Updates  UpdateChecker
	Notes    Noter
}

// New returns an Engine.
func New(d Deps) *Engine {
	return &Engine{
		state:     d.State,
		rules:     d.Rules,
		clock:     d.Clock,
		sun:       d.Sun,
		actuator:  d.Actuator,
		store:     d.Store,
		updates:   d.Updates,
		notes:     d.Notes,
		countdown: NewCountdown(),
		fired:     make(map[int]int64),
	}
}

// ArmDusk delays the next edge evaluation by |minutes| minutes of ticks.
func (e *Engine) ArmDusk(minutes int) {
	if minutes < 0 {
		minutes = -minutes
	}
	e.countdown.Arm(minutes * 60)
	log.Info().Int("minutes", minutes).Msg("Dusk countdown armed")
}

// Countdown exposes the dusk countdown.
func (e *Engine) Countdown() *Countdown {
	return e.countdown
}

// Tick runs one scheduling cycle. Call it once per second.
func (e *Engine) Tick() bool {
	if e.countdown.Tick() {
		return e.Evaluate(true)
	}
	return e.Evaluate(e.sunEdge())
}

// sunEdge flips twilight at the computed sunset and sunrise minutes. It only
// looks once a minute and only when a location is set and the clock runs.
func (e *Engine) sunEdge() bool {
	st := e.state
	if !st.HasLocation() || !e.clock.IsRunning() {
		return false
	}
	now := e.clock.Now()
	if now.Second() != 0 {
		return false
	}
	current := clock.MinuteOfDay(now)

	if (current > sunRecheckAfter && st.LastSunCheck != now.Day()) ||
		st.NextSunset == device.Unknown || st.NextSunrise == device.Unknown {
		e.sun.Compute(now)
	}
	if st.NextSunset == device.Unknown || st.NextSunrise == device.Unknown {
		return false
	}

	switch {
	case current == st.NextSunset && !st.Twilight:
		st.Twilight = true
		return true
	case current == st.NextSunrise && st.Twilight:
		st.Twilight = false
		return true
	}
	return false
}

// Evaluate runs every enabled rule for today. edge selects twilight/
// cloudiness triggers; otherwise on/off times are polled. Reports whether
// any rule activated.
func (e *Engine) Evaluate(edge bool) bool {
	st := e.state
	running := e.clock.IsRunning()
	now := e.clock.Now()
	current := -1

	if running {
		current = clock.MinuteOfDay(now)
		e.daylightSaving(now, current)
		if current == updateCheckMinute && now.Second() == 0 {
			e.updates.CheckForUpdate()
		}
	}

	set := e.rules.Current()
	if set != e.firedFor {
		e.fired = make(map[int]int64)
		e.firedFor = set
	}

	var reasons []string
	for i, r := range set.Rules {
		if !r.Enabled || !(r.Days.EveryDay || (running && r.Days.Includes(now.Weekday()))) {
			continue
		}

		if edge {
			reasons = append(reasons, e.edgeRule(r, current)...)
			continue
		}

		if !running || now.Unix()-e.fired[i] < cooldown {
			continue
		}
		if r.OnTime == current && (!r.OnAtNightAndTime || st.Twilight) {
			e.fired[i] = now.Unix()
			e.switchLights(r.Lights, true)
			reasons = append(reasons, "on at time"+suffix(r.OnAtNightAndTime, " and dusk"))
		}
		if r.OffTime == current && (!r.OffAtDayAndTime || !st.Twilight) {
			e.fired[i] = now.Unix()
			e.switchLights(r.Lights, false)
			reasons = append(reasons, "off at time"+suffix(r.OffAtDayAndTime, " and dawn"))
		}
	}

	if len(reasons) == 0 {
		if edge {
			e.notes.Note("Smart didn't activate anything.")
		}
		return false
	}

	mode := "poll"
	if edge {
		mode = "edge"
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`relay_switch_rule_activations_total{mode=%q}`, mode)).Add(len(reasons))

	e.notes.Note("Smart " + strings.Join(reasons, ", "))
	e.actuator.Apply(device.OrdererSmart, true)
	return true
}

func (e *Engine) edgeRule(r schedule.Rule, current int) []string {
	st := e.state
	var reasons []string

	cloudy := r.ReactToCloudiness && st.Cloudiness
	if r.OnAtNight &&
		(!r.OnAtNightAndTime || passed(r.OnTime, current) || cloudy) &&
		(st.Twilight || cloudy) {
		e.switchLights(r.Lights, true)
		cause := "dusk"
		if cloudy {
			cause = "cloudiness"
		}
		reasons = append(reasons, "on at "+cause+suffix(r.OnAtNightAndTime && st.Twilight, " and time"))
	}

	sunny := r.ReactToCloudiness && !st.Cloudiness
	if r.OffAtDay &&
		(!r.OffAtDayAndTime || passed(r.OffTime, current) || sunny) &&
		(!st.Twilight || sunny) {
		e.switchLights(r.Lights, false)
		cause := "dawn"
		if sunny {
			cause = "sunshine"
		}
		reasons = append(reasons, "off at "+cause+suffix(r.OffAtDayAndTime && !st.Twilight, " and time"))
	}
	return reasons
}

// passed reports whether a set minute-of-day is already behind current.
func passed(minute, current int) bool {
	return minute != schedule.Unset && minute < current
}

func (e *Engine) switchLights(ch schedule.Channels, on bool) {
	if ch.Has(schedule.Channel1) {
		e.state.Light1 = on
	}
	if ch.Has(schedule.Channel2) {
		e.state.Light2 = on
	}
}

// daylightSaving moves the clock on the last Sundays of March and October.
func (e *Engine) daylightSaving(now time.Time, current int) {
	st := e.state
	lastWeek := now.Day() > 24 && now.Weekday() == time.Sunday

	switch {
	case lastWeek && now.Month() == time.March && current == summerTimeMinute && !st.DST:
		e.clock.Adjust(now.Add(time.Hour))
		st.DST = true
		e.notes.Note("Smart set to summer time")
	case lastWeek && now.Month() == time.October && current == winterTimeMinute && st.DST:
		e.clock.Adjust(now.Add(-time.Hour))
		st.DST = false
		e.notes.Note("Smart set to winter time")
	default:
		return
	}

	if err := e.store.Save(true); err != nil {
		log.Warn().Err(err).Msg("Settings not saved after time change")
	}
	e.sun.Compute(e.clock.Now())
}

func suffix(cond bool, s string) string {
	if cond {
		return s
	}
	return ""
}
