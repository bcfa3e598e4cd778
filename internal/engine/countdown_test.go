package engine

import "testing"

func TestCountdownIdle(t *testing.T) {
	c := NewCountdown()
	if c.Armed() {
		t.Error("new countdown armed")
	}
	if c.Tick() {
		t.Error("idle countdown expired")
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	c := NewCountdown()
	c.Arm(3)

	if c.Remaining() != 3 {
		t.Errorf("remaining = %d, want 3", c.Remaining())
	}
	if c.Tick() || c.Tick() {
		t.Error("expired early")
	}
	if !c.Tick() {
		t.Error("did not expire on third tick")
	}
	if c.Tick() {
		t.Error("expired twice")
	}
}

func TestCountdownRearm(t *testing.T) {
	c := NewCountdown()
	c.Arm(2)
	c.Tick()
	c.Arm(5)

	if c.Remaining() != 5 {
		t.Errorf("remaining = %d, want 5", c.Remaining())
	}
}

func TestCountdownIgnoresZero(t *testing.T) {
	c := NewCountdown()
	c.Arm(0)
	if c.Armed() {
		t.Error("armed with zero ticks")
	}
}
