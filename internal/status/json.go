package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for the status endpoint.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Phase          string     `json:"phase"`
	Presence       bool       `json:"presence"`
	ScreenOn       bool       `json:"screen_on"`
	CounterSeconds int        `json:"counter_seconds"`
	Dimmed         bool       `json:"dimmed"`
	AlwaysOn       bool       `json:"always_on"`
	Ignore         bool       `json:"ignore"`
	AlwaysOnTotal  int        `json:"always_on_total,omitempty"`
	AlwaysOnLeft   int        `json:"always_on_left,omitempty"`
	UptimeSeconds  int64      `json:"uptime_seconds"`
	StartTime      string     `json:"start_time"`
	Timestamp      string     `json:"timestamp"`
	MQTT           MQTTStatus `json:"mqtt"`
	Counts         CountsJSON `json:"counts"`
	Config         ConfigJSON `json:"config"`
}

// MQTTStatus reports bus connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	SwitchOn     int `json:"switch_on"`
	SwitchOff    int `json:"switch_off"`
	SensorFaults int `json:"sensor_faults"`
	Wakes        int `json:"wakes"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Mode              string `json:"mode"`
	CounterTimeout    int    `json:"counter_timeout"`
	AutoDimmer        bool   `json:"auto_dimmer"`
	AutoDimmerTimeout int    `json:"auto_dimmer_timeout"`
	OccupancyTopic    string `json:"occupancy_topic,omitempty"`
	HTTPAddr          string `json:"http_addr"`
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	inner := StatusInner{
		Phase:          string(snap.State.Phase()),
		Presence:       snap.State.Presence,
		ScreenOn:       snap.State.ScreenOn,
		CounterSeconds: snap.State.Counter,
		Dimmed:         snap.State.Dimmed,
		AlwaysOn:       snap.State.AlwaysOn,
		Ignore:         snap.State.Ignore,
		AlwaysOnTotal:  snap.State.AlwaysOnTotal,
		AlwaysOnLeft:   snap.State.AlwaysOnLeft,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			SwitchOn:     snap.Counts.SwitchOn,
			SwitchOff:    snap.Counts.SwitchOff,
			SensorFaults: snap.Counts.SensorFaults,
			Wakes:        snap.Counts.Wakes,
		},
		Config: ConfigJSON{
			Mode:              snap.Config.Mode,
			CounterTimeout:    snap.Config.CounterTimeout,
			AutoDimmer:        snap.Config.AutoDimmer,
			AutoDimmerTimeout: snap.Config.AutoDimmerTimeout,
			OccupancyTopic:    snap.Config.OccupancyTopic,
			HTTPAddr:          snap.Config.HTTPAddr,
		},
	}

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
