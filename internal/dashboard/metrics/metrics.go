// Package metrics exposes Prometheus instruments for the polling pipeline and
// the backend client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zabbixboard"

// Metrics groups every instrument registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	pollTicks      *prometheus.CounterVec
	pollFailures   *prometheus.CounterVec
	pollStale      *prometheus.CounterVec
	pollSessions   *prometheus.GaugeVec
	backendLatency *prometheus.HistogramVec
	workspaces     prometheus.Gauge
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		pollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "ticks_total",
			Help:      "Refresh attempts per poller.",
		}, []string{"poller"}),
		pollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "failures_total",
			Help:      "Refresh attempts that returned an error.",
		}, []string{"poller"}),
		pollStale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "stale_dropped_total",
			Help:      "Responses discarded because their scope or tick was superseded.",
		}, []string{"poller"}),
		pollSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "active_sessions",
			Help:      "Polling sessions currently scheduled.",
		}, []string{"poller"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of backend API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "status"}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workspaces",
			Help:      "Live per-user workspaces.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pollTicks, m.pollFailures, m.pollStale, m.pollSessions,
		m.backendLatency, m.workspaces,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Tick(poller string)         { m.pollTicks.WithLabelValues(poller).Inc() }
func (m *Metrics) Failure(poller string)      { m.pollFailures.WithLabelValues(poller).Inc() }
func (m *Metrics) StaleDropped(poller string) { m.pollStale.WithLabelValues(poller).Inc() }
func (m *Metrics) SessionStarted(poller string) {
	m.pollSessions.WithLabelValues(poller).Inc()
}
func (m *Metrics) SessionEnded(poller string) {
	m.pollSessions.WithLabelValues(poller).Dec()
}

// ObserveBackend records one backend call. status is 0 for transport errors.
func (m *Metrics) ObserveBackend(resource string, status int, d time.Duration) {
	m.backendLatency.WithLabelValues(resource, strconv.Itoa(status)).Observe(d.Seconds())
}

// SetWorkspaces publishes the number of live workspaces.
func (m *Metrics) SetWorkspaces(n int) { m.workspaces.Set(float64(n)) }
