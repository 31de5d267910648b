package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/mcrory/estop"
	"github.com/mcrory/estop/internal/logic"
	"github.com/mcrory/estop/internal/metrics"
	"github.com/mcrory/estop/internal/mqtt"
	"github.com/mcrory/estop/internal/status"
	"github.com/mcrory/estop/internal/web"
)

var (
	monitorInterval  time.Duration
	monitorHeartbeat time.Duration
	monitorBroker    string
	monitorHTTP      string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the switch continuously and publish state changes",
	Long: `Monitor polls the switch at a fixed interval and reports every state
transition. Transitions and lifecycle events go to MQTT when a broker is
configured, and an HTTP endpoint serves a live status page, status JSON and
Prometheus metrics. On shutdown the GPIO pin is driven to the safe output
level for the configured wiring mode.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMonitor(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 100*time.Millisecond, "polling interval")
	monitorCmd.Flags().DurationVar(&monitorHeartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 disables)")
	monitorCmd.Flags().StringVar(&monitorBroker, "broker", "", "MQTT broker URL, e.g. tcp://192.168.1.200:1883 (empty disables publishing)")
	monitorCmd.Flags().StringVar(&monitorHTTP, "http", ":8080", "HTTP status listen address (empty disables)")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command) error {
	ctrl := newController(cmd)
	guard := estop.NewGuard(ctrl)
	defer guard.Shutdown("exit")
	defer guard.HandleCrash()

	var publisher mqtt.Publisher
	var connStatus mqtt.ConnectionStatus
	if monitorBroker != "" {
		real, err := mqtt.NewRealPublisher(monitorBroker)
		if err != nil {
			return err
		}
		defer real.Close()
		publisher = real
		connStatus = real
	}

	st := ctrl.Status()
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      monitorInterval.Milliseconds(),
		HeartbeatMs: monitorHeartbeat.Milliseconds(),
		Broker:      monitorBroker,
		HTTPPort:    monitorHTTP,
	})
	tracker.Update(st, status.TransitionCounts{})
	mets := metrics.New()
	mets.Observe(st)

	log.Printf("monitoring pin %d in %s mode via %s on %s", st.GPIOPin, st.Mode, st.Driver, st.Board)
	fmt.Printf("Monitoring e-stop on pin %d (Ctrl+C to stop)\n", st.GPIOPin)

	if publisher != nil {
		startup := mqtt.SystemEvent{
			Timestamp: time.Now(),
			Event:     "STARTUP",
			Config: &mqtt.SystemConfig{
				PollMs:      monitorInterval.Milliseconds(),
				HeartbeatMs: monitorHeartbeat.Milliseconds(),
				Mode:        string(st.Mode),
				GPIOPin:     st.GPIOPin,
				Broker:      monitorBroker,
			},
			Retained: true,
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
			mets.PublishFailure()
		} else {
			log.Printf("published startup event")
		}
	}

	if monitorHTTP != "" {
		srv := web.New(monitorHTTP, tracker, mets.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("status page listening on %s", monitorHTTP)
	}

	notifySystemd(daemon.SdNotifyReady)

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	counts := monitorLoop(ctrl, guard.Done(), publisher, connStatus, tracker, mets, monitorHeartbeat, time.Now, ticker.C)

	notifySystemd(daemon.SdNotifyStopping)

	reason := guard.Reason()
	if publisher != nil {
		snap := tracker.Snapshot()
		shutdown := mqtt.SystemEvent{
			Timestamp:  time.Now(),
			Event:      "SHUTDOWN",
			Reason:     reason,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
			Retained:   true,
		}
		if err := publisher.PublishSystem(shutdown); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event (%s)", reason)
		}
	}
	log.Printf("stopped after %d transitions (%s)", counts.ToActive+counts.ToInactive, reason)
	fmt.Printf("Monitoring stopped (%s)\n", reason)
	return nil
}

// monitorLoop polls the controller on every tick until done closes, feeding
// samples through the transition detector and publishing what it reports.
// The clock and tick channel are injected so tests can drive the loop
// deterministically.
func monitorLoop(ctrl *estop.Controller, done <-chan struct{}, publisher mqtt.Publisher, connStatus mqtt.ConnectionStatus, tracker *status.Tracker, mets *metrics.Set, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time) status.TransitionCounts {
	det := logic.NewDetector(now())

	for {
		select {
		case <-done:
			c := det.Counts()
			return status.TransitionCounts{ToActive: c.ToActive, ToInactive: c.ToInactive}
		case <-tick:
			t := now()
			st := ctrl.Status()

			primed := det.Primed()
			change := det.Process(st, t)
			if !primed {
				log.Printf("initial state %s (switch %s)", st.State, switchLabel(st))
				fmt.Printf("[%s] %s\n", t.Format("15:04:05"), stateLabel(st.State))
			}
			if change != nil {
				evType := mqtt.EventInactive
				if change.To == estop.StateActive {
					evType = mqtt.EventActive
				}
				mets.Transition(change.To)
				log.Printf("%s (switch %s, source %s)", evType, switchLabel(st), change.Source)
				fmt.Printf("[%s] %s\n", change.Timestamp.Format("15:04:05"), stateLabel(change.To))

				if publisher != nil {
					ev := mqtt.Event{
						Timestamp: change.Timestamp,
						Type:      evType,
						State:     change.To,
						Switch:    switchPosition(st),
						Mode:      st.Mode,
						GPIOPin:   st.GPIOPin,
						Source:    change.Source,
					}
					if err := publisher.Publish(ev); err != nil {
						log.Printf("failed to publish %s: %v", evType, err)
						mets.PublishFailure()
					}
				}
			}

			c := det.Counts()
			if connStatus != nil {
				tracker.SetMQTTConnected(connStatus.IsConnected())
			}
			tracker.Update(st, status.TransitionCounts{ToActive: c.ToActive, ToInactive: c.ToInactive})
			mets.Observe(st)

			if hb := det.CheckHeartbeat(t, heartbeat); hb != nil && publisher != nil {
				ev := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
					Heartbeat: &mqtt.HeartbeatInfo{
						UptimeSeconds: int64(hb.Uptime.Seconds()),
						State:         string(hb.State),
						Counts: mqtt.HeartbeatCounts{
							ToActive:   hb.Counts.ToActive,
							ToInactive: hb.Counts.ToInactive,
						},
					},
				}
				if err := publisher.PublishSystem(ev); err != nil {
					log.Printf("failed to publish heartbeat: %v", err)
					mets.PublishFailure()
				} else {
					log.Printf("heartbeat (uptime %ds)", int64(hb.Uptime.Seconds()))
				}
			}
		}
	}
}

func switchPosition(st estop.Status) estop.Switch {
	if !st.GPIOAvailable {
		return ""
	}
	if st.GPIOActive {
		return estop.SwitchClosed
	}
	return estop.SwitchOpen
}

// notifySystemd reports service state when running under systemd. Elsewhere
// SdNotify is a no-op.
func notifySystemd(state string) {
	if ok, err := daemon.SdNotify(false, state); err != nil {
		log.Printf("sd_notify: %v", err)
	} else if ok {
		log.Printf("sd_notify: %s", state)
	}
}
