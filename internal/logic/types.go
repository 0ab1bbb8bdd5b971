// Package logic contains the pure decision engine for screen power control.
// This package has NO external dependencies (no GPIO, MQTT, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/mfeltham/screenduty/internal/schedule"
)

// Mode selects which occupancy signals feed the presence verdict.
type Mode string

const (
	ModeSensor      Mode = "sensor"
	ModeBus         Mode = "bus"
	ModeSensorOrBus Mode = "sensor_or_bus"
)

// Valid reports whether m is a known fusion mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSensor, ModeBus, ModeSensorOrBus:
		return true
	}
	return false
}

// Phase is the countdown state machine phase, derived from a snapshot.
type Phase string

const (
	PhaseActive   Phase = "ACTIVE"   // presence true, counter pinned
	PhaseCounting Phase = "COUNTING" // presence false, counting down
	PhaseDimmed   Phase = "DIMMED"   // counting down, dimmed
	PhaseIdle     Phase = "IDLE"     // counter exhausted, screen off
)

// Config holds the static engine parameters, validated at startup.
type Config struct {
	Mode              Mode
	CounterTimeout    int // seconds the screen stays on after presence is lost
	AutoDimmer        bool
	AutoDimmerTimeout int // counter value at which the display dims
	IgnoreWindows     []schedule.Window
	AlwaysOnWindows   []schedule.Window
}

// Signals holds the current raw inputs. Each field is owned by its source:
// the PIR watcher, the bus client and the wake pulse respectively.
type Signals struct {
	Sensor bool
	Bus    bool
	Pulse  bool
}

// Snapshot is an immutable view of the engine after one evaluation pass.
// It is a value type, safe to use after the pass completes.
type Snapshot struct {
	Time          time.Time
	Presence      bool
	ScreenOn      bool
	Counter       int // seconds remaining before the screen turns off
	Dimmed        bool
	AlwaysOn      bool
	Ignore        bool
	AlwaysOnTotal int // always-on window length in seconds, 0 when inactive
	AlwaysOnLeft  int // whole seconds until the always-on window ends
}

// Phase derives the state machine phase from the snapshot.
func (s Snapshot) Phase() Phase {
	switch {
	case s.Presence:
		return PhaseActive
	case s.Dimmed:
		return PhaseDimmed
	case s.Counter > 0:
		return PhaseCounting
	default:
		return PhaseIdle
	}
}

// Result is the outcome of a single evaluation pass.
type Result struct {
	Snapshot Snapshot
	// Screen is non-nil when the actuation intent changed and the
	// external on/off command must be invoked. It is always non-nil on
	// the first pass so the display starts in a known state.
	Screen *bool
}
