// Package config loads and validates the screenduty YAML configuration.
// Configuration is validated once at startup and static thereafter.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mfeltham/screenduty/internal/logic"
	"github.com/mfeltham/screenduty/internal/schedule"
)

// Config is the root configuration structure.
type Config struct {
	Mode              string         `yaml:"mode"`
	CounterTimeout    int            `yaml:"counter_timeout"`
	AutoDimmer        bool           `yaml:"auto_dimmer"`
	AutoDimmerTimeout int            `yaml:"auto_dimmer_timeout"`
	OnCommand         string         `yaml:"on_command"`
	OffCommand        string         `yaml:"off_command"`
	IgnoreWindows     []WindowConfig `yaml:"ignore_windows"`
	AlwaysOnWindows   []WindowConfig `yaml:"always_on_windows"`
	Sensor            SensorConfig   `yaml:"sensor"`
	MQTT              MQTTConfig     `yaml:"mqtt"`
	HTTP              HTTPConfig     `yaml:"http"`
}

// WindowConfig is a recurring window as written in YAML.
type WindowConfig struct {
	From string `yaml:"from"` // "HH:MM", inclusive
	To   string `yaml:"to"`   // "HH:MM", exclusive; To < From wraps past midnight
	Days []int  `yaml:"days"` // 0 = Sunday .. 6 = Saturday
}

// SensorConfig contains the PIR GPIO line settings.
type SensorConfig struct {
	Chip       string `yaml:"chip"`
	Pin        int    `yaml:"pin"`
	ActiveLow  bool   `yaml:"active_low"`
	DebounceMs int    `yaml:"debounce_ms"`
}

// MQTTConfig contains the bus connection and topic settings.
// An empty Broker disables the bus entirely (sensor-only operation).
type MQTTConfig struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	OccupancyTopic string `yaml:"occupancy_topic"`
	OccupancyField string `yaml:"occupancy_field"`
	WakeTopic      string `yaml:"wake_topic"`
	StateTopic     string `yaml:"state_topic"`
	SystemTopic    string `yaml:"system_topic"`
}

// HTTPConfig contains the status server settings. Empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration defaults applied before unmarshalling.
func Default() Config {
	return Config{
		Mode:              string(logic.ModeSensor),
		CounterTimeout:    120,
		AutoDimmerTimeout: 60,
		Sensor: SensorConfig{
			Chip:       "gpiochip0",
			Pin:        -1,
			DebounceMs: 20,
		},
		MQTT: MQTTConfig{
			ClientID:    "screenduty",
			WakeTopic:   "screenduty/wake",
			StateTopic:  "screenduty/state",
			SystemTopic: "screenduty/system",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads the YAML file at path, applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Validate checks all settings. It is the only place configuration errors
// can surface; after startup the configuration is trusted.
func (c *Config) Validate() error {
	if !logic.Mode(c.Mode).Valid() {
		return fmt.Errorf("mode: unknown %q", c.Mode)
	}
	if c.CounterTimeout <= 0 {
		return fmt.Errorf("counter_timeout: must be > 0, got %d", c.CounterTimeout)
	}
	if c.AutoDimmer {
		if c.AutoDimmerTimeout <= 0 || c.AutoDimmerTimeout > c.CounterTimeout {
			return fmt.Errorf("auto_dimmer_timeout: must be in 1..counter_timeout, got %d", c.AutoDimmerTimeout)
		}
	}
	if c.OnCommand == "" || c.OffCommand == "" {
		return fmt.Errorf("on_command and off_command are required")
	}

	mode := logic.Mode(c.Mode)
	if mode != logic.ModeBus && c.Sensor.Pin < 0 {
		return fmt.Errorf("sensor.pin: required for mode %q", c.Mode)
	}
	if mode != logic.ModeSensor {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker: required for mode %q", c.Mode)
		}
		if c.MQTT.OccupancyTopic == "" || c.MQTT.OccupancyField == "" {
			return fmt.Errorf("mqtt.occupancy_topic and mqtt.occupancy_field: required for mode %q", c.Mode)
		}
	}

	if _, err := parseWindows("ignore_windows", c.IgnoreWindows); err != nil {
		return err
	}
	alwaysOn, err := parseWindows("always_on_windows", c.AlwaysOnWindows)
	if err != nil {
		return err
	}
	for i := range alwaysOn {
		for j := i + 1; j < len(alwaysOn); j++ {
			if alwaysOn[i].Overlaps(alwaysOn[j]) {
				return fmt.Errorf("always_on_windows: entries %d and %d overlap", i, j)
			}
		}
	}
	return nil
}

// Engine builds the engine configuration. Call after Validate.
func (c *Config) Engine() (logic.Config, error) {
	ignore, err := parseWindows("ignore_windows", c.IgnoreWindows)
	if err != nil {
		return logic.Config{}, err
	}
	alwaysOn, err := parseWindows("always_on_windows", c.AlwaysOnWindows)
	if err != nil {
		return logic.Config{}, err
	}
	return logic.Config{
		Mode:              logic.Mode(c.Mode),
		CounterTimeout:    c.CounterTimeout,
		AutoDimmer:        c.AutoDimmer,
		AutoDimmerTimeout: c.AutoDimmerTimeout,
		IgnoreWindows:     ignore,
		AlwaysOnWindows:   alwaysOn,
	}, nil
}

func parseWindows(name string, list []WindowConfig) ([]schedule.Window, error) {
	out := make([]schedule.Window, 0, len(list))
	for i, wc := range list {
		w, err := wc.window()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func (wc WindowConfig) window() (schedule.Window, error) {
	var w schedule.Window
	start, err := schedule.ParseClock(wc.From)
	if err != nil {
		return w, fmt.Errorf("from: %w", err)
	}
	end, err := schedule.ParseClock(wc.To)
	if err != nil {
		return w, fmt.Errorf("to: %w", err)
	}
	if start == end {
		return w, fmt.Errorf("from and to must differ (empty window)")
	}
	if len(wc.Days) == 0 {
		return w, fmt.Errorf("days: at least one weekday required")
	}
	w.Start = start
	w.End = end
	for _, d := range wc.Days {
		if d < 0 || d > 6 {
			return w, fmt.Errorf("days: %d out of range 0..6", d)
		}
		w.Days[d] = true
	}
	return w, nil
}
