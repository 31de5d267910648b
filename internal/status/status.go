// Package status provides a thread-safe status tracker for the estop
// monitor daemon. It is read by the HTTP handlers and the MQTT publisher.
package status

import (
	"sync"
	"time"

	"github.com/mcrory/estop"
)

// Config contains monitor configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
}

// TransitionCounts tallies state changes observed since startup.
type TransitionCounts struct {
	ToActive   int
	ToInactive int
}

// Snapshot is a point-in-time view of monitor state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         estop.State
	Switch        estop.Switch
	Mode          estop.Mode
	GPIOPin       int
	Override      bool
	GPIOAvailable bool
	Driver        string
	Board         string
	Counts        TransitionCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the monitor started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable monitor state behind an RWMutex.
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

// switchFromStatus derives the contact position from a controller
// snapshot. Without hardware there is no position to report.
func switchFromStatus(st estop.Status) estop.Switch {
	if !st.GPIOAvailable {
		return ""
	}
	if st.GPIOActive {
		return estop.SwitchClosed
	}
	return estop.SwitchOpen
}

// Update records the controller view and transition counts.
// Called from the monitor loop on every poll.
func (t *Tracker) Update(st estop.Status, counts TransitionCounts) {
	t.mu.Lock()
	t.snap.State = st.State
	t.snap.Switch = switchFromStatus(st)
	t.snap.Mode = st.Mode
	t.snap.GPIOPin = st.GPIOPin
	t.snap.Override = st.ManualOverride
	t.snap.GPIOAvailable = st.GPIOAvailable
	t.snap.Driver = st.Driver
	t.snap.Board = st.Board
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the monitor state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
