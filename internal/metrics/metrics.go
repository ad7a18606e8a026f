// Package metrics provides Prometheus metrics for the API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	votesTotal       *prometheus.CounterVec
	cacheOps         *prometheus.CounterVec
}

// New creates the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breadit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		requestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "breadit_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		votesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadit_votes_total",
				Help: "Vote upserts by target kind and outcome",
			},
			[]string{"target", "outcome"},
		),
		cacheOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadit_vote_cache_ops_total",
				Help: "Hot-post cache writes, invalidations and failures",
			},
			[]string{"op"},
		),
	}
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) IncRequestsInFlight() { m.requestsInFlight.Inc() }
func (m *Metrics) DecRequestsInFlight() { m.requestsInFlight.Dec() }

// RecordVote counts one vote upsert. target is "post" or "comment".
func (m *Metrics) RecordVote(target, outcome string) {
	m.votesTotal.WithLabelValues(target, outcome).Inc()
}

// RecordCacheOp counts a cache operation: "write", "invalidate" or "error".
func (m *Metrics) RecordCacheOp(op string) {
	m.cacheOps.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
