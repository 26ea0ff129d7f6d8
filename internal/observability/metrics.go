// Package observability exposes Prometheus metrics for the ReelShelf backend.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Removal results recorded by RecordPosterRemoval.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the application collectors and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	PosterRemovals *prometheus.CounterVec
	SessionsSwept  prometheus.Counter
}

// NewMetrics creates a dedicated registry with the Go and process collectors
// plus the application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelshelf_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reelshelf_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PosterRemovals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelshelf_poster_removals_total",
				Help: "Total number of orphaned poster removals by result",
			},
			[]string{"result"},
		),
		SessionsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reelshelf_sessions_swept_total",
				Help: "Total number of expired sessions deleted by the sweeper",
			},
		),
	}

	registry.MustRegister(m.HTTPRequests, m.HTTPDuration, m.PosterRemovals, m.SessionsSwept)
	return m
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPosterRemoval counts one janitor removal attempt.
func (m *Metrics) RecordPosterRemoval(_ string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.PosterRemovals.WithLabelValues(result).Inc()
}

// RecordSessionsSwept adds n deleted sessions.
func (m *Metrics) RecordSessionsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSwept.Add(float64(n))
}
