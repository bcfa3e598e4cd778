// Package controller runs the switch's single control loop. Every change to
// device state happens on the loop goroutine; HTTP handlers and the MQTT
// client hand state work to it and wait for the result. The activity log
// does its own locking, so log reads, clears and the on/off toggle are
// served directly.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/relay-switch/internal/activity"
	"github.com/sweeney/relay-switch/internal/actuator"
	"github.com/sweeney/relay-switch/internal/astro"
	"github.com/sweeney/relay-switch/internal/button"
	"github.com/sweeney/relay-switch/internal/clock"
	"github.com/sweeney/relay-switch/internal/device"
	"github.com/sweeney/relay-switch/internal/engine"
	"github.com/sweeney/relay-switch/internal/gpio"
	"github.com/sweeney/relay-switch/internal/mqtt"
	"github.com/sweeney/relay-switch/internal/schedule"
	"github.com/sweeney/relay-switch/internal/status"
	"github.com/sweeney/relay-switch/internal/store"
	"github.com/sweeney/relay-switch/internal/syncer"
	"github.com/sweeney/relay-switch/internal/web"
)

// ActivityLog is the persistent activity log.
type ActivityLog interface {
	Note(text string)
	Entries(limit int) ([]activity.Entry, error)
	Clear() error
	Enabled() bool
	SetEnabled(keep bool)
}

// Config wires a Controller.
type Config struct {
	ID       string
	Version  string
	DataDir  string
	Offline  bool
	Debounce time.Duration

	State     *device.State
	Clock     clock.Clock
	Relays    gpio.Relays
	Buttons   gpio.Buttons
	Publisher mqtt.Publisher
	Activity  ActivityLog
	Tracker   *status.Tracker
}

// Controller owns the device state and every component that touches it.
type Controller struct {
	state     *device.State
	clock     clock.Clock
	rules     *schedule.Holder
	store     *store.Store
	actuator  *actuator.Actuator
	engine    *engine.Engine
	sync      *syncer.Synchronizer
	sun       *astro.Calculator
	details   *status.Source
	debouncer *button.Debouncer

	buttons   gpio.Buttons
	publisher mqtt.Publisher
	activity  ActivityLog
	tracker   *status.Tracker

	calls chan func()
}

// New wires the components around cfg.State.
func New(cfg Config) *Controller {
	st := cfg.State
	st.Offline = cfg.Offline

	c := &Controller{
		state:     st,
		clock:     cfg.Clock,
		rules:     schedule.NewHolder(cfg.Activity),
		sun:       astro.NewCalculator(st),
		debouncer: button.NewDebouncer(cfg.Debounce),
		buttons:   cfg.Buttons,
		publisher: cfg.Publisher,
		activity:  cfg.Activity,
		tracker:   cfg.Tracker,
		calls:     make(chan func()),
	}

	c.store = store.New(cfg.DataDir, st, c.rules, cfg.Activity)
	c.actuator = actuator.New(st, cfg.Relays, c.store, cfg.Publisher, cfg.Activity)
	c.details = &status.Source{ID: cfg.ID, Version: cfg.Version, State: st, Rules: c.rules, Clock: cfg.Clock}

	c.engine = engine.New(engine.Deps{
		State:    st,
		Rules:    c.rules,
		Clock:    cfg.Clock,
		Sun:      c.sun,
		Actuator: c.actuator,
		Store:    c.store,
		Updates:  cfg.Publisher,
		Notes:    cfg.Activity,
	})

	c.sync = syncer.New(syncer.Deps{
		State:    st,
		Rules:    c.rules,
		Clock:    cfg.Clock,
		Sun:      c.sun,
		Engine:   c.engine,
		Actuator: c.actuator,
		Store:    c.store,
		Push:     cfg.Publisher,
		Details:  c.details,
		Notes:    cfg.Activity,
	})
	return c
}

// Boot restores persisted settings and drives the relays to match them.
// Call it before Run.
func (c *Controller) Boot() {
	if err := c.store.LoadWithFallback(); err != nil {
		c.activity.Note("Default settings")
	}
	c.actuator.Apply(device.OrdererRestore, false)

	if c.clock.IsRunning() {
		c.state.StartTime = time.Unix(c.clock.Now().Unix()-c.state.Shift(), 0).UTC()
		if c.state.HasLocation() {
			c.sun.Compute(c.clock.Now())
		}
	}
	c.publishStatus()

	log.Info().
		Int("uprisings", c.state.Uprisings).
		Str("value", c.state.Value()).
		Stringer("mode", c.state.Mode()).
		Msg("Switch booted")
}

// SetClock starts the clock from a trusted UTC time. Call it after Boot,
// once the offset and DST are known.
func (c *Controller) SetClock(utc time.Time) {
	c.clock.Adjust(utc.UTC().Add(time.Duration(c.state.Shift()) * time.Second))
	c.state.StartTime = utc.UTC().Truncate(time.Second)
	if c.state.HasLocation() {
		c.sun.Compute(c.clock.Now())
	}
	c.publishStatus()
	log.Info().Time("local", c.clock.Now()).Msg("Clock set from system time")
}

// Loop carries the loop's timing sources.
type Loop struct {
	Second <-chan time.Time // scheduling tick, once per second
	Poll   <-chan time.Time // button sampling
}

// Run serves the loop until ctx is done.
func (c *Controller) Run(ctx context.Context, l Loop) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case fn := <-c.calls:
			fn()

		case payload := <-c.publisher.Commands():
			if _, err := c.sync.Apply(payload, false); err != nil {
				log.Warn().Err(err).Msg("Cloud command rejected")
			}
			c.publishStatus()

		case <-l.Second:
			c.engine.Tick()
			c.publishStatus()

		case t := <-l.Poll:
			c.pollButtons(t)
		}
	}
}

func (c *Controller) pollButtons(t time.Time) {
	b1, b2, err := c.buttons.Read()
	if err != nil {
		log.Error().Err(err).Msg("Button read failed")
		return
	}
	presses := c.debouncer.Process(button.Sample{Time: t, Pressed: [2]bool{b1, b2}})
	if len(presses) == 0 {
		return
	}
	for _, p := range presses {
		c.Toggle(p.Button)
	}
	c.publishStatus()
}

// Toggle flips one light and applies it as a manual change. Loop only.
func (c *Controller) Toggle(n int) {
	switch n {
	case 1:
		c.state.Light1 = !c.state.Light1
	case 2:
		c.state.Light2 = !c.state.Light2
	default:
		return
	}
	log.Debug().Int("button", n).Msg("Button pressed")
	c.actuator.Apply(device.OrdererManual, true)
}

func (c *Controller) publishStatus() {
	if c.tracker == nil {
		return
	}
	c.tracker.Update(c.details.Build())
	c.tracker.SetLogEnabled(c.activity.Enabled())
	if cs, ok := c.publisher.(mqtt.ConnectionStatus); ok {
		c.tracker.SetMQTTConnected(cs.IsConnected())
	}
}

// do runs fn on the loop and waits for it and the status refresh after it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	call := func() {
		fn()
		c.publishStatus()
		close(done)
	}
	select {
	case c.calls <- call:
	case <-ctx.Done():
		return fmt.Errorf("controller busy: %w", ctx.Err())
	}
	<-done
	return nil
}

// Device returns the HTTP view of the controller. Calls block until the
// loop has handled them or ctx is done.
func (c *Controller) Device(ctx context.Context) web.Device {
	return &httpDevice{c: c, ctx: ctx}
}
