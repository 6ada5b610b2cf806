package dev

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "chen"

// Load statuses recorded by Metrics.
const (
	LoadStatusOK    = "ok"
	LoadStatusError = "error"
)

// Metrics holds the Prometheus collectors of one development session.
// Each session owns its registry so sessions never collide. All methods are
// safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	moduleLoads        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	invalidations      prometheus.Counter
	reloads            prometheus.Counter
	clients            prometheus.Gauge
}

// NewMetrics creates the session collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		moduleLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "module_loads_total",
			Help:      "Virtual route module loads by status",
		}, []string{"status"}),

		generationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent scanning pages and generating the route module",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "invalidations_total",
			Help:      "Filesystem notifications that invalidated the route module",
		}),

		reloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reloads_total",
			Help:      "Full reload signals sent over the live channel",
		}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "reload_clients",
			Help:      "Connected live channel clients",
		}),
	}
}

// Registry returns the session registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the session metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeLoad(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.moduleLoads.WithLabelValues(status).Inc()
	if status == LoadStatusOK {
		m.generationDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) incInvalidations() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

func (m *Metrics) incReloads() {
	if m == nil {
		return
	}
	m.reloads.Inc()
}

func (m *Metrics) setClients(n int) {
	if m == nil {
		return
	}
	m.clients.Set(float64(n))
}
