package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcrory/estop"
	"github.com/mcrory/estop/gpio"
	"github.com/mcrory/estop/internal/metrics"
	"github.com/mcrory/estop/internal/mqtt"
	"github.com/mcrory/estop/internal/status"
)

var errTest = errors.New("broker unavailable")

// fakeClock returns a clock that advances by step on every call.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

var loopStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newLoopController(t *testing.T, levels ...gpio.Level) (*estop.Controller, *gpio.Fake) {
	t.Helper()
	fake := gpio.NewFake(levels...)
	ctrl := estop.New(estop.WithPort(fake), estop.WithStore(estop.NewMemStore()))
	return ctrl, fake
}

// runLoop drives monitorLoop with nTicks ticks and then stops it. The hook,
// if non-nil, runs before each tick is sent; because tick sends are
// unbuffered, by the time send i returns tick i-1 has been fully processed.
func runLoop(t *testing.T, ctrl *estop.Controller, pub *mqtt.FakePublisher, heartbeat time.Duration, clock func() time.Time, nTicks int, hook func(i int)) (*status.Tracker, status.TransitionCounts) {
	t.Helper()

	tick := make(chan time.Time)
	done := make(chan struct{})
	tracker := status.NewTracker(loopStart, status.Config{PollMs: 100, HeartbeatMs: heartbeat.Milliseconds()})
	mets := metrics.New()

	var publisher mqtt.Publisher
	var conn mqtt.ConnectionStatus
	if pub != nil {
		publisher = pub
		conn = pub
	}

	countsCh := make(chan status.TransitionCounts, 1)
	go func() {
		countsCh <- monitorLoop(ctrl, done, publisher, conn, tracker, mets, heartbeat, clock, tick)
	}()

	for i := 0; i < nTicks; i++ {
		if hook != nil {
			hook(i)
		}
		tick <- time.Time{}
	}
	close(done)
	return tracker, <-countsCh
}

func TestMonitorLoopInitialStateNoEvent(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()

	tracker, counts := runLoop(t, ctrl, pub, 0, fakeClock(loopStart, time.Second), 3, nil)

	if len(pub.Events) != 0 {
		t.Errorf("expected no events for a stable state, got %d", len(pub.Events))
	}
	if counts.ToActive != 0 || counts.ToInactive != 0 {
		t.Errorf("expected zero counts, got %+v", counts)
	}
	snap := tracker.Snapshot()
	if snap.State != estop.StateInactive {
		t.Errorf("tracker state = %s, want %s", snap.State, estop.StateInactive)
	}
	if snap.Switch != estop.SwitchClosed {
		t.Errorf("tracker switch = %q, want %q", snap.Switch, estop.SwitchClosed)
	}
}

func TestMonitorLoopPublishesTransitions(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()

	tracker, counts := runLoop(t, ctrl, pub, 0, fakeClock(loopStart, time.Second), 5, nil)

	if len(pub.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.Events))
	}

	active := pub.Events[0]
	if active.Type != mqtt.EventActive {
		t.Errorf("first event type = %s, want %s", active.Type, mqtt.EventActive)
	}
	if active.State != estop.StateActive {
		t.Errorf("first event state = %s, want %s", active.State, estop.StateActive)
	}
	if active.Switch != estop.SwitchOpen {
		t.Errorf("first event switch = %s, want %s", active.Switch, estop.SwitchOpen)
	}
	if active.Mode != estop.ModeNC {
		t.Errorf("first event mode = %s, want %s", active.Mode, estop.ModeNC)
	}
	if active.GPIOPin != estop.DefaultPin {
		t.Errorf("first event pin = %d, want %d", active.GPIOPin, estop.DefaultPin)
	}
	if active.Source != "switch" {
		t.Errorf("first event source = %q, want %q", active.Source, "switch")
	}
	// Third tick, one second per call starting at loopStart.
	if want := loopStart.Add(3 * time.Second); !active.Timestamp.Equal(want) {
		t.Errorf("first event timestamp = %v, want %v", active.Timestamp, want)
	}

	inactive := pub.Events[1]
	if inactive.Type != mqtt.EventInactive {
		t.Errorf("second event type = %s, want %s", inactive.Type, mqtt.EventInactive)
	}
	if inactive.Switch != estop.SwitchClosed {
		t.Errorf("second event switch = %s, want %s", inactive.Switch, estop.SwitchClosed)
	}

	if counts.ToActive != 1 || counts.ToInactive != 1 {
		t.Errorf("counts = %+v, want one each way", counts)
	}
	if snap := tracker.Snapshot(); snap.Counts != counts {
		t.Errorf("tracker counts = %+v, want %+v", snap.Counts, counts)
	}
}

func TestMonitorLoopOverrideSource(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()

	_, counts := runLoop(t, ctrl, pub, 0, fakeClock(loopStart, time.Second), 4, func(i int) {
		if i == 2 {
			if err := ctrl.Activate(); err != nil {
				t.Errorf("activate: %v", err)
			}
		}
	})

	if len(pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.Events))
	}
	ev := pub.Events[0]
	if ev.Type != mqtt.EventActive {
		t.Errorf("event type = %s, want %s", ev.Type, mqtt.EventActive)
	}
	if ev.Source != "override" {
		t.Errorf("event source = %q, want %q", ev.Source, "override")
	}
	if counts.ToActive != 1 {
		t.Errorf("counts.ToActive = %d, want 1", counts.ToActive)
	}
}

func TestMonitorLoopResetPublishesInactive(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()

	_, counts := runLoop(t, ctrl, pub, 0, fakeClock(loopStart, time.Second), 4, func(i int) {
		switch i {
		case 0:
			// Engage before the first tick so the initial state is active.
			if err := ctrl.Activate(); err != nil {
				t.Errorf("activate: %v", err)
			}
		case 2:
			if err := ctrl.Reset(); err != nil {
				t.Errorf("reset: %v", err)
			}
		}
	})

	if len(pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.Events))
	}
	ev := pub.Events[0]
	if ev.Type != mqtt.EventInactive {
		t.Errorf("event type = %s, want %s", ev.Type, mqtt.EventInactive)
	}
	if ev.Source != "switch" {
		t.Errorf("event source = %q, want %q", ev.Source, "switch")
	}
	if counts.ToInactive != 1 || counts.ToActive != 0 {
		t.Errorf("counts = %+v, want one transition to inactive", counts)
	}
}

func TestMonitorLoopHeartbeat(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()

	runLoop(t, ctrl, pub, 15*time.Minute, fakeClock(loopStart, 5*time.Minute), 4, nil)

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 heartbeat, got %d system events", len(pub.SystemEvents))
	}
	hb := pub.SystemEvents[0]
	if hb.Event != "HEARTBEAT" {
		t.Errorf("event = %q, want HEARTBEAT", hb.Event)
	}
	if hb.Retained {
		t.Error("heartbeats must not be retained")
	}
	if hb.Heartbeat == nil {
		t.Fatal("heartbeat info missing")
	}
	if hb.Heartbeat.UptimeSeconds != 900 {
		t.Errorf("uptime = %d, want 900", hb.Heartbeat.UptimeSeconds)
	}
	if hb.Heartbeat.State != string(estop.StateInactive) {
		t.Errorf("heartbeat state = %q, want %q", hb.Heartbeat.State, estop.StateInactive)
	}
	if want := loopStart.Add(15 * time.Minute); !hb.Timestamp.Equal(want) {
		t.Errorf("heartbeat timestamp = %v, want %v", hb.Timestamp, want)
	}
}

func TestMonitorLoopHeartbeatDisabled(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()

	runLoop(t, ctrl, pub, 0, fakeClock(loopStart, 5*time.Minute), 4, nil)

	if len(pub.SystemEvents) != 0 {
		t.Errorf("expected no system events with heartbeat disabled, got %d", len(pub.SystemEvents))
	}
}

func TestMonitorLoopPublishErrorKeepsCounting(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High, gpio.Low, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errTest

	_, counts := runLoop(t, ctrl, pub, 0, fakeClock(loopStart, time.Second), 3, nil)

	if len(pub.Events) != 0 {
		t.Errorf("expected no recorded events when publishing fails, got %d", len(pub.Events))
	}
	if counts.ToActive != 1 || counts.ToInactive != 1 {
		t.Errorf("counts = %+v, want one each way despite publish failures", counts)
	}
}

func TestMonitorLoopNilPublisher(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High, gpio.Low)
	defer ctrl.Close()

	tracker, counts := runLoop(t, ctrl, nil, time.Minute, fakeClock(loopStart, time.Second), 2, nil)

	if counts.ToActive != 1 {
		t.Errorf("counts.ToActive = %d, want 1", counts.ToActive)
	}
	if tracker.Snapshot().MQTTConnected {
		t.Error("tracker should not report MQTT connected without a publisher")
	}
}

func TestMonitorLoopTracksConnection(t *testing.T) {
	ctrl, _ := newLoopController(t, gpio.High)
	defer ctrl.Close()
	pub := mqtt.NewFakePublisher()
	pub.Connected = true

	tracker, _ := runLoop(t, ctrl, pub, 0, fakeClock(loopStart, time.Second), 1, nil)

	if !tracker.Snapshot().MQTTConnected {
		t.Error("tracker should report MQTT connected")
	}
}

func TestSwitchPositionFromStatus(t *testing.T) {
	tests := []struct {
		name string
		st   estop.Status
		want estop.Switch
	}{
		{"closed", estop.Status{GPIOAvailable: true, GPIOActive: true}, estop.SwitchClosed},
		{"open", estop.Status{GPIOAvailable: true, GPIOActive: false}, estop.SwitchOpen},
		{"unavailable", estop.Status{GPIOAvailable: false, GPIOActive: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := switchPosition(tt.st); got != tt.want {
				t.Errorf("switchPosition() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateLabel(t *testing.T) {
	if got := stateLabel(estop.StateActive); !strings.Contains(got, "ACTIVE") {
		t.Errorf("stateLabel(active) = %q, want it to contain ACTIVE", got)
	}
	if got := stateLabel(estop.StateInactive); !strings.Contains(got, "INACTIVE") {
		t.Errorf("stateLabel(inactive) = %q, want it to contain INACTIVE", got)
	}
}

func TestSwitchLabelWithoutHardware(t *testing.T) {
	st := estop.Status{GPIOAvailable: false}
	if got := switchLabel(st); got != "unknown (no hardware)" {
		t.Errorf("switchLabel() = %q", got)
	}
}
