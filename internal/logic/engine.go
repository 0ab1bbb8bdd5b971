package logic

import (
	"time"

	"github.com/mfeltham/screenduty/internal/schedule"
)

// Engine is the serialized decision core. It owns all mutable decision
// state; callers must invoke its methods from a single goroutine. Every
// method runs one full evaluation pass: resolve windows, fuse signals,
// advance the countdown, derive the screen intent.
type Engine struct {
	cfg Config

	signals Signals
	sched   schedule.State

	presence bool
	counter  int
	dimmed   bool

	// screenOn is the last actuation intent; actuated is false until the
	// first pass has driven the display to a known state.
	screenOn bool
	actuated bool

	// pulseGen invalidates in-flight pulse expiries when a pulse is
	// cancelled by genuine presence or superseded by a newer pulse.
	pulseGen int
}

// New creates an Engine. cfg must already be validated.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// SensorMotion handles a PRESENT edge from the motion sensor.
func (e *Engine) SensorMotion(now time.Time) Result {
	e.setSensor(true)
	return e.evaluate(now, false)
}

// SensorClear handles an ABSENT edge from the motion sensor.
func (e *Engine) SensorClear(now time.Time) Result {
	e.setSensor(false)
	return e.evaluate(now, false)
}

// SensorFault handles a sensor ERROR: the level is treated as absent and
// the fault is the caller's to log. The engine never crashes on it.
func (e *Engine) SensorFault(now time.Time) Result {
	e.setSensor(false)
	return e.evaluate(now, false)
}

// BusOccupancy handles an occupancy value decoded from a bus message.
func (e *Engine) BusOccupancy(present bool, now time.Time) Result {
	if !e.signals.Bus && present {
		e.cancelPulse()
	}
	e.signals.Bus = present
	return e.evaluate(now, false)
}

// WakePulse starts a manual presence pulse and returns its generation
// token. The caller schedules the expiry and posts PulseExpired with the
// token; a stale token is ignored.
func (e *Engine) WakePulse(now time.Time) (Result, int) {
	e.pulseGen++
	e.signals.Pulse = true
	return e.evaluate(now, false), e.pulseGen
}

// PulseExpired ends the pulse identified by gen. Expiries for pulses that
// were cancelled by genuine presence (or replaced by a newer pulse) carry
// a stale generation and only trigger a re-evaluation.
func (e *Engine) PulseExpired(gen int, now time.Time) Result {
	if gen == e.pulseGen {
		e.signals.Pulse = false
	}
	return e.evaluate(now, false)
}

// ScheduleTick re-resolves the recurring windows against now.
func (e *Engine) ScheduleTick(now time.Time) Result {
	return e.evaluate(now, false)
}

// CountdownTick advances the countdown by one second. It is the only
// event that decrements the counter.
func (e *Engine) CountdownTick(now time.Time) Result {
	return e.evaluate(now, true)
}

// Signals returns a copy of the current raw inputs.
func (e *Engine) Signals() Signals {
	return e.signals
}

func (e *Engine) setSensor(level bool) {
	if !e.signals.Sensor && level {
		e.cancelPulse()
	}
	e.signals.Sensor = level
}

// cancelPulse drops an in-flight wake pulse. Real detection supersedes
// the manual override, and bumping the generation makes the pending
// expiry a no-op.
func (e *Engine) cancelPulse() {
	if e.signals.Pulse {
		e.signals.Pulse = false
		e.pulseGen++
	}
}

// evaluate runs one full pass. The window state is recomputed wholesale,
// never patched, so the schedule can never drift from the wall clock.
func (e *Engine) evaluate(now time.Time, decrement bool) Result {
	e.sched = schedule.Resolve(now, e.cfg.IgnoreWindows, e.cfg.AlwaysOnWindows)

	switch {
	case e.sched.AlwaysOn:
		e.presence = true
	case e.sched.Ignore:
		e.presence = false
	default:
		var sig bool
		switch e.cfg.Mode {
		case ModeSensor:
			sig = e.signals.Sensor
		case ModeBus:
			sig = e.signals.Bus
		default:
			sig = e.signals.Sensor || e.signals.Bus
		}
		e.presence = sig || e.signals.Pulse
	}

	switch {
	case e.presence:
		// Pinned ACTIVE: the counter rearms on every pass, which also
		// covers the reset-on-transition requirement.
		e.counter = e.cfg.CounterTimeout
		e.dimmed = false
	case e.sched.Ignore:
		// No countdown while ignored: the screen is plainly off.
		e.counter = 0
		e.dimmed = false
	default:
		if decrement && e.counter > 0 {
			e.counter--
		}
		if e.cfg.AutoDimmer && !e.dimmed && e.counter > 0 && e.counter <= e.cfg.AutoDimmerTimeout {
			e.dimmed = true
		}
		if e.counter == 0 {
			e.dimmed = false
		}
	}

	on := (e.presence || e.counter > 0) && !e.sched.Ignore

	var edge *bool
	if !e.actuated || on != e.screenOn {
		v := on
		edge = &v
		e.screenOn = on
		e.actuated = true
	}

	return Result{Snapshot: e.snapshot(now), Screen: edge}
}

func (e *Engine) snapshot(now time.Time) Snapshot {
	s := Snapshot{
		Time:     now,
		Presence: e.presence,
		ScreenOn: e.screenOn,
		Counter:  e.counter,
		Dimmed:   e.dimmed,
		AlwaysOn: e.sched.AlwaysOn,
		Ignore:   e.sched.Ignore,
	}
	if e.sched.Window != nil {
		s.AlwaysOnTotal = e.sched.Window.Total
		s.AlwaysOnLeft = e.sched.Window.Remaining
	}
	return s
}
