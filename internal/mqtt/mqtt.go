// Package mqtt provides the bus client: occupancy and wake subscriptions
// in, state snapshots and lifecycle events out, with abstraction for
// testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mfeltham/screenduty/internal/logic"
)

// Options contains the broker connection and topic settings.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// OccupancyTopic carries third-party presence JSON; OccupancyField
	// names the field read from each message.
	OccupancyTopic string
	OccupancyField string

	// WakeTopic triggers a manual wake pulse on any message.
	WakeTopic string

	// StateTopic and SystemTopic are where snapshots and lifecycle
	// events are published.
	StateTopic  string
	SystemTopic string
}

// Bus is the full client surface the daemon uses.
type Bus interface {
	// SubscribeOccupancy registers the occupancy handler. Malformed
	// payloads are dropped before the handler is called.
	SubscribeOccupancy(handler func(present bool)) error

	// SubscribeWake registers the manual wake handler.
	SubscribeWake(handler func()) error

	// PublishState sends a state snapshot. Fire and forget: callers log
	// the error and move on.
	PublishState(snap logic.Snapshot) error

	// PublishSystem sends a lifecycle event (STARTUP, SHUTDOWN).
	PublishSystem(event SystemEvent) error

	// IsConnected reports the current connection state.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// SystemEvent is a lifecycle event published to the system topic.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // "STARTUP", "SHUTDOWN"
	Reason    string // e.g. "SIGTERM" (shutdown only)
	Retained  bool
}

// StatePayload is the JSON envelope published to the state topic.
type StatePayload struct {
	Screen ScreenPayload `json:"screen"`
}

// ScreenPayload carries one decision snapshot.
type ScreenPayload struct {
	Timestamp      string `json:"timestamp"`
	Phase          string `json:"phase"`
	Presence       bool   `json:"presence"`
	ScreenOn       bool   `json:"screen_on"`
	CounterSeconds int    `json:"counter_seconds"`
	Dimmed         bool   `json:"dimmed"`
	AlwaysOn       bool   `json:"always_on"`
	Ignore         bool   `json:"ignore"`
	AlwaysOnTotal  int    `json:"always_on_total,omitempty"`
	AlwaysOnLeft   int    `json:"always_on_left,omitempty"`
}

// FormatState creates the JSON payload for a snapshot.
func FormatState(snap logic.Snapshot) ([]byte, error) {
	payload := StatePayload{
		Screen: ScreenPayload{
			Timestamp:      snap.Time.UTC().Format(time.RFC3339),
			Phase:          string(snap.Phase()),
			Presence:       snap.Presence,
			ScreenOn:       snap.ScreenOn,
			CounterSeconds: snap.Counter,
			Dimmed:         snap.Dimmed,
			AlwaysOn:       snap.AlwaysOn,
			Ignore:         snap.Ignore,
			AlwaysOnTotal:  snap.AlwaysOnTotal,
			AlwaysOnLeft:   snap.AlwaysOnLeft,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the JSON envelope for lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystem creates the JSON payload for a lifecycle event.
func FormatSystem(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// ParseOccupancy extracts the named field from an occupancy message and
// coerces it to a presence bool. Boolean true, numeric 1 and the strings
// "1"/"true" read as present; any other value of the field reads as
// absent. An unparsable message or a missing field is an error; the
// caller drops the message and the previous value stands.
func ParseOccupancy(payload []byte, field string) (bool, error) {
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		return false, fmt.Errorf("unmarshal occupancy payload: %w", err)
	}
	v, ok := msg[field]
	if !ok {
		return false, fmt.Errorf("occupancy field %q missing", field)
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t == 1, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "1" || s == "true", nil
	default:
		return false, nil
	}
}
