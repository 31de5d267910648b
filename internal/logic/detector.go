package logic

import (
	"time"

	"github.com/mcrory/estop"
)

// Detector tracks the resolved e-stop state and reports transitions.
// An e-stop is never debounced: the first sample showing a change wins.
type Detector struct {
	startTime     time.Time
	lastHeartbeat time.Time
	state         estop.State
	primed        bool
	counts        Counts
}

// NewDetector creates a transition detector. The startTime is used for
// calculating uptime in heartbeat events.
func NewDetector(startTime time.Time) *Detector {
	return &Detector{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new status sample and returns the transition it completes,
// nil otherwise. The first sample primes the detector and never yields a
// change.
func (d *Detector) Process(st estop.Status, now time.Time) *Change {
	if !d.primed {
		d.primed = true
		d.state = st.State
		return nil
	}

	if st.State == d.state {
		return nil
	}
	d.state = st.State

	if st.State == estop.StateActive {
		d.counts.ToActive++
	} else {
		d.counts.ToInactive++
	}

	source := SourceSwitch
	if st.ManualOverride {
		source = SourceOverride
	}

	return &Change{
		Timestamp: now,
		To:        st.State,
		Source:    source,
	}
}

// Primed returns whether the detector has seen its first sample.
func (d *Detector) Primed() bool {
	return d.primed
}

// CurrentState returns the last observed state.
func (d *Detector) CurrentState() estop.State {
	return d.state
}

// Counts returns the transition tallies since startup.
func (d *Detector) Counts() Counts {
	return d.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet primed, if the interval
// has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !d.primed {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		State:     d.state,
		Counts:    d.counts,
	}
}
