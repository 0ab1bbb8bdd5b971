// Package metrics defines the prometheus collectors for the daemon.
// Faults are absorbed locally by design, so these counters are the only
// place they remain visible besides the log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mfeltham/screenduty/internal/logic"
)

const namespace = "screenduty"

var (
	// ScreenSwitches counts actuator invocations by target state.
	ScreenSwitches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "screen_switches_total",
		Help:      "number of screen on/off command invocations",
	}, []string{"state"})

	// ActuatorFailures counts commands that failed to launch or exited
	// non-zero.
	ActuatorFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actuator_failures_total",
		Help:      "number of failed screen command invocations",
	})

	// SensorFaults counts errors reported by the PIR driver.
	SensorFaults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sensor_faults_total",
		Help:      "number of PIR driver errors",
	})

	// BusPayloadsDropped counts occupancy messages dropped as malformed.
	BusPayloadsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_payloads_dropped_total",
		Help:      "number of occupancy messages dropped as malformed",
	})

	presence = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "presence",
		Help:      "current presence verdict (1 = occupied)",
	})

	counterSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "counter_seconds",
		Help:      "seconds remaining before the screen turns off",
	})

	dimmed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dimmed",
		Help:      "whether the display is currently dimmed (1 = dimmed)",
	})
)

func init() {
	prometheus.MustRegister(
		ScreenSwitches,
		ActuatorFailures,
		SensorFaults,
		BusPayloadsDropped,
		presence,
		counterSeconds,
		dimmed,
	)
}

// ObserveSnapshot updates the state gauges after an evaluation pass.
func ObserveSnapshot(snap logic.Snapshot) {
	presence.Set(boolGauge(snap.Presence))
	counterSeconds.Set(float64(snap.Counter))
	dimmed.Set(boolGauge(snap.Dimmed))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
