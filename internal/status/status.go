// Package status provides a thread-safe tracker of the latest decision
// snapshot for the HTTP status page. The event loop writes, handlers read.
package status

import (
	"sync"
	"time"

	"github.com/mfeltham/screenduty/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Mode              string
	CounterTimeout    int
	AutoDimmer        bool
	AutoDimmerTimeout int
	Broker            string
	OccupancyTopic    string
	HTTPAddr          string
}

// Counts tracks event totals since startup.
type Counts struct {
	SwitchOn     int
	SwitchOff    int
	SensorFaults int
	Wakes        int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.Snapshot
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Counts        Counts
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
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

// Update stores the decision snapshot from the latest evaluation pass.
func (t *Tracker) Update(state logic.Snapshot) {
	t.mu.Lock()
	t.snap.State = state
	t.mu.Unlock()
}

// CountSwitch records an actuator invocation.
func (t *Tracker) CountSwitch(on bool) {
	t.mu.Lock()
	if on {
		t.snap.Counts.SwitchOn++
	} else {
		t.snap.Counts.SwitchOff++
	}
	t.mu.Unlock()
}

// CountSensorFault records a PIR driver error.
func (t *Tracker) CountSensorFault() {
	t.mu.Lock()
	t.snap.Counts.SensorFaults++
	t.mu.Unlock()
}

// CountWake records a manual wake pulse request.
func (t *Tracker) CountWake() {
	t.mu.Lock()
	t.snap.Counts.Wakes++
	t.mu.Unlock()
}

// SetMQTTConnected sets the bus connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
