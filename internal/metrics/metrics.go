// Package metrics exposes Prometheus collectors for the estop monitor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcrory/estop"
)

// Set holds the monitor's collectors behind a private registry, so the
// scrape endpoint carries only estop series and no process defaults.
type Set struct {
	registry *prometheus.Registry

	state         prometheus.Gauge
	override      prometheus.Gauge
	gpioAvailable prometheus.Gauge
	transitions   *prometheus.CounterVec
	publishFails  prometheus.Counter
}

// New creates the collector set on a fresh registry.
func New() *Set {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	s := &Set{
		registry: reg,
		state: factory.NewGauge(prometheus.GaugeOpts{
			Name: "estop_state",
			Help: "Current e-stop state (1 = active, 0 = inactive).",
		}),
		override: factory.NewGauge(prometheus.GaugeOpts{
			Name: "estop_manual_override",
			Help: "Whether the manual override is engaged (1 = engaged).",
		}),
		gpioAvailable: factory.NewGauge(prometheus.GaugeOpts{
			Name: "estop_gpio_available",
			Help: "Whether GPIO hardware is available (1 = available).",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estop_transitions_total",
			Help: "State transitions observed since startup.",
		}, []string{"direction"}),
		publishFails: factory.NewCounter(prometheus.CounterOpts{
			Name: "estop_publish_failures_total",
			Help: "MQTT publishes that returned an error.",
		}),
	}

	// Create both directions up front so the series exist from startup.
	s.transitions.WithLabelValues(string(estop.StateActive))
	s.transitions.WithLabelValues(string(estop.StateInactive))

	return s
}

// Observe records one controller snapshot.
func (s *Set) Observe(st estop.Status) {
	s.state.Set(boolToFloat(st.State == estop.StateActive))
	s.override.Set(boolToFloat(st.ManualOverride))
	s.gpioAvailable.Set(boolToFloat(st.GPIOAvailable))
}

// Transition counts one state change by the state it entered.
func (s *Set) Transition(to estop.State) {
	s.transitions.WithLabelValues(string(to)).Inc()
}

// PublishFailure counts a failed MQTT publish.
func (s *Set) PublishFailure() {
	s.publishFails.Inc()
}

// Handler serves the scrape endpoint for this set.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
