// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/mcrory/estop"
)

// Topic is the MQTT topic for e-stop state transitions.
const Topic = "safety/estop/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "safety/estop/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a state transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// EventType identifies the direction of a state transition.
type EventType string

const (
	EventActive   EventType = "ESTOP_ACTIVE"
	EventInactive EventType = "ESTOP_INACTIVE"
)

// Event represents one e-stop state transition.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     estop.State
	Switch    estop.Switch
	Mode      estop.Mode
	GPIOPin   int
	Source    string // "switch" or "override"; empty when unknown
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string         // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string         // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Config     *SystemConfig  // startup only
	Heartbeat  *HeartbeatInfo // heartbeat only
	RawPayload []byte         // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool           // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Estop EstopPayload `json:"estop"`
}

// EstopPayload contains the transition details.
type EstopPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
	Switch    string `json:"switch"`
	Mode      string `json:"mode"`
	GPIOPin   int    `json:"gpio_pin"`
	Source    string `json:"source,omitempty"`
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Estop: EstopPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     string(event.State),
			Switch:    string(event.Switch),
			Mode:      string(event.Mode),
			GPIOPin:   event.GPIOPin,
			Source:    event.Source,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reason    string         `json:"reason,omitempty"`
	Config    *SystemConfig  `json:"config,omitempty"`
	Heartbeat *HeartbeatInfo `json:"heartbeat,omitempty"`
}

// SystemConfig is the monitor configuration attached to STARTUP events.
type SystemConfig struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Mode        string `json:"mode"`
	GPIOPin     int    `json:"gpio_pin"`
	Broker      string `json:"broker"`
}

// HeartbeatInfo carries the periodic liveness summary.
type HeartbeatInfo struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	State         string          `json:"state"`
	Counts        HeartbeatCounts `json:"transition_counts"`
}

// HeartbeatCounts tallies transitions since startup.
type HeartbeatCounts struct {
	ToActive   int `json:"to_active"`
	ToInactive int `json:"to_inactive"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
			Heartbeat: event.Heartbeat,
		},
	}
	return json.Marshal(payload)
}
