package engine

import (
	"context"

	"github.com/qmuntal/stateless"
)

type countdownState int

const (
	countdownIdle countdownState = iota
	countdownArmed
)

const (
	triggerArm    = "arm"
	triggerTick   = "tick"
	triggerExpire = "expire"
)

// Countdown delays edge evaluation after dusk by a number of ticks. It fires
// exactly once when the count reaches zero. Arming again restarts it.
type Countdown struct {
	sm        *stateless.StateMachine
	remaining int
}

// NewCountdown returns an idle countdown.
func NewCountdown() *Countdown {
	c := &Countdown{}
	c.sm = stateless.NewStateMachine(countdownIdle)

	c.sm.Configure(countdownIdle).
		Permit(triggerArm, countdownArmed).
		Ignore(triggerTick)

	c.sm.Configure(countdownArmed).
		OnEntryFrom(triggerArm, func(_ context.Context, args ...any) error {
			c.remaining = args[0].(int)
			return nil
		}).
		PermitReentry(triggerArm).
		InternalTransition(triggerTick, func(_ context.Context, _ ...any) error {
			c.remaining--
			return nil
		}).
		Permit(triggerExpire, countdownIdle)

	return c
}

// Arm starts (or restarts) the countdown. Non-positive counts are ignored.
func (c *Countdown) Arm(ticks int) {
	if ticks <= 0 {
		return
	}
	_ = c.sm.Fire(triggerArm, ticks)
}

// Armed reports whether the countdown is running.
func (c *Countdown) Armed() bool {
	return c.sm.MustState() == countdownArmed
}

// Remaining returns the ticks left, or zero when idle.
func (c *Countdown) Remaining() int {
	if !c.Armed() {
		return 0
	}
	return c.remaining
}

// Tick consumes one tick and reports whether the countdown just expired.
func (c *Countdown) Tick() bool {
	if !c.Armed() {
		return false
	}
	_ = c.sm.Fire(triggerTick)
	if c.remaining > 0 {
		return false
	}
	_ = c.sm.Fire(triggerExpire)
	return true
}
