// Package metrics exposes Prometheus instruments for the album catalog.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"albumtracker/internal/catalog"
)

// Metrics holds all Prometheus metrics for the daemon. Each instance owns
// its registry so tests and embedded daemons do not collide.
type Metrics struct {
	registry    *prometheus.Registry
	Transitions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	Albums      *prometheus.GaugeVec
	CustodyHeld prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "albumtracker_transitions_total",
			Help: "Successful album state transitions by target state",
		}, []string{"state"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "albumtracker_rejections_total",
			Help: "Rejected catalog operations by operation and error kind",
		}, []string{"operation", "kind"}),
		Albums: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "albumtracker_albums",
			Help: "Current number of albums by state",
		}, []string{"state"}),
		CustodyHeld: factory.NewGauge(prometheus.GaugeOpts{
			Name: "albumtracker_custody_held",
			Help: "Total value currently held by custody units of paid albums",
		}),
	}
}

// Load sets the gauges from a catalog snapshot taken at startup.
func (m *Metrics) Load(stats catalog.Stats, held int64) {
	for _, state := range catalog.States() {
		m.Albums.WithLabelValues(string(state)).Set(float64(stats[state]))
	}
	m.CustodyHeld.Set(float64(held))
}

// Append records a committed state change.
func (m *Metrics) Append(change catalog.StateChange) {
	m.Transitions.WithLabelValues(string(change.State)).Inc()
	m.Albums.WithLabelValues(string(change.State)).Inc()
	switch change.State {
	case catalog.StatePaid:
		m.Albums.WithLabelValues(string(catalog.StateListed)).Dec()
		m.CustodyHeld.Add(float64(change.Amount))
	case catalog.StateDelivered:
		m.Albums.WithLabelValues(string(catalog.StatePaid)).Dec()
		m.CustodyHeld.Sub(float64(change.Amount))
	}
}

// Rejected records a failed catalog operation.
func (m *Metrics) Rejected(operation, kind string) {
	m.Rejections.WithLabelValues(operation, kind).Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ catalog.Observer = (*Metrics)(nil)
