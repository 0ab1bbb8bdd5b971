package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mfeltham/screenduty/internal/logic"
)

const sampleYAML = `
mode: sensor_or_bus
counter_timeout: 120
auto_dimmer: true
auto_dimmer_timeout: 60
on_command: "vcgencmd display_power 1"
off_command: "vcgencmd display_power 0"
ignore_windows:
  - { from: "23:00", to: "05:00", days: [1, 2, 3, 4, 5] }
always_on_windows:
  - { from: "07:30", to: "09:00", days: [1, 2, 3, 4, 5] }
sensor:
  pin: 17
mqtt:
  broker: tcp://localhost:1883
  occupancy_topic: zigbee2mqtt/hall-sensor
  occupancy_field: occupancy
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSample(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "sensor_or_bus" {
		t.Errorf("Mode: got %q", cfg.Mode)
	}
	if cfg.CounterTimeout != 120 || cfg.AutoDimmerTimeout != 60 {
		t.Errorf("timeouts: got %d/%d", cfg.CounterTimeout, cfg.AutoDimmerTimeout)
	}
	// Defaults survive partial override.
	if cfg.Sensor.Chip != "gpiochip0" {
		t.Errorf("Sensor.Chip default: got %q", cfg.Sensor.Chip)
	}
	if cfg.MQTT.ClientID != "screenduty" {
		t.Errorf("MQTT.ClientID default: got %q", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.StateTopic != "screenduty/state" {
		t.Errorf("MQTT.StateTopic default: got %q", cfg.MQTT.StateTopic)
	}

	ec, err := cfg.Engine()
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	if ec.Mode != logic.ModeSensorOrBus {
		t.Errorf("engine mode: got %q", ec.Mode)
	}
	if len(ec.IgnoreWindows) != 1 || len(ec.AlwaysOnWindows) != 1 {
		t.Fatalf("windows: got %d/%d", len(ec.IgnoreWindows), len(ec.AlwaysOnWindows))
	}
	iw := ec.IgnoreWindows[0]
	if iw.Start != 23*60 || iw.End != 5*60 {
		t.Errorf("ignore window bounds: got %d-%d", iw.Start, iw.End)
	}
	if !iw.Days[time.Monday] || iw.Days[time.Sunday] {
		t.Errorf("ignore window days wrong: %v", iw.Days)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateErrors(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Mode = string(logic.ModeSensorOrBus)
		c.OnCommand = "on"
		c.OffCommand = "off"
		c.Sensor.Pin = 17
		c.MQTT.Broker = "tcp://localhost:1883"
		c.MQTT.OccupancyTopic = "t"
		c.MQTT.OccupancyField = "occupancy"
		return c
	}
	if err := func() error { c := valid(); return c.Validate() }(); err != nil {
		t.Fatalf("baseline config invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown mode", func(c *Config) { c.Mode = "psychic" }, "mode"},
		{"zero counter", func(c *Config) { c.CounterTimeout = 0 }, "counter_timeout"},
		{"dimmer beyond counter", func(c *Config) { c.AutoDimmer = true; c.AutoDimmerTimeout = c.CounterTimeout + 1 }, "auto_dimmer_timeout"},
		{"dimmer zero", func(c *Config) { c.AutoDimmer = true; c.AutoDimmerTimeout = 0 }, "auto_dimmer_timeout"},
		{"missing off command", func(c *Config) { c.OffCommand = "" }, "off_command"},
		{"missing pin", func(c *Config) { c.Sensor.Pin = -1 }, "sensor.pin"},
		{"missing broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker"},
		{"missing occupancy field", func(c *Config) { c.MQTT.OccupancyField = "" }, "occupancy_field"},
		{"bad window clock", func(c *Config) {
			c.IgnoreWindows = []WindowConfig{{From: "25:00", To: "26:00", Days: []int{1}}}
		}, "ignore_windows[0]"},
		{"empty window", func(c *Config) {
			c.IgnoreWindows = []WindowConfig{{From: "10:00", To: "10:00", Days: []int{1}}}
		}, "differ"},
		{"no days", func(c *Config) {
			c.IgnoreWindows = []WindowConfig{{From: "10:00", To: "11:00", Days: nil}}
		}, "days"},
		{"day out of range", func(c *Config) {
			c.IgnoreWindows = []WindowConfig{{From: "10:00", To: "11:00", Days: []int{7}}}
		}, "days"},
		{"overlapping always-on", func(c *Config) {
			c.AlwaysOnWindows = []WindowConfig{
				{From: "08:00", To: "10:00", Days: []int{1}},
				{From: "09:00", To: "11:00", Days: []int{1}},
			}
		}, "overlap"},
	}

	for _, c := range cases {
		cfg := valid()
		c.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestSensorOnlyWithoutMQTT(t *testing.T) {
	c := Default()
	c.Mode = string(logic.ModeSensor)
	c.OnCommand = "on"
	c.OffCommand = "off"
	c.Sensor.Pin = 17
	if err := c.Validate(); err != nil {
		t.Errorf("sensor mode should not require mqtt: %v", err)
	}
}

func TestBusOnlyWithoutSensorPin(t *testing.T) {
	c := Default()
	c.Mode = string(logic.ModeBus)
	c.OnCommand = "on"
	c.OffCommand = "off"
	c.MQTT.Broker = "tcp://localhost:1883"
	c.MQTT.OccupancyTopic = "t"
	c.MQTT.OccupancyField = "occupancy"
	if err := c.Validate(); err != nil {
		t.Errorf("bus mode should not require a sensor pin: %v", err)
	}
}
