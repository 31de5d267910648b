// Package logic contains pure state tracking for the e-stop monitor.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/mcrory/estop"
)

// Transition sources.
const (
	SourceSwitch   = "switch"
	SourceOverride = "override"
)

// Change represents one detected state transition.
type Change struct {
	Timestamp time.Time
	To        estop.State
	Source    string
}

// Counts tracks the number of transitions in each direction since startup.
type Counts struct {
	ToActive   int
	ToInactive int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     estop.State
	Counts    Counts
}
