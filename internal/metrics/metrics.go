// Package metrics exposes Prometheus counters for provider calls, cache
// decisions and dashboard requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ProviderCallsTotal   *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	PersistFailures  *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ProviderCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadtech_provider_calls_total",
				Help: "Total number of search provider calls",
			},
			[]string{"endpoint", "status"},
		),
		ProviderCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadtech_provider_call_duration_seconds",
				Help:    "Search provider call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		),

		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadtech_cache_hits_total",
				Help: "Total number of requests served from the call log",
			},
			[]string{"endpoint"},
		),
		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadtech_cache_misses_total",
				Help: "Total number of requests that went to the provider",
			},
			[]string{"endpoint"},
		),
		PersistFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadtech_persist_failures_total",
				Help: "Total number of swallowed persist failures",
			},
			[]string{"endpoint"},
		),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadtech_http_requests_total",
				Help: "Total number of dashboard HTTP requests",
			},
			[]string{"route", "code"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadtech_http_request_duration_seconds",
				Help:    "Dashboard request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
			},
			[]string{"route"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordProviderCall(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCallsTotal.WithLabelValues(endpoint, status).Inc()
	m.ProviderCallDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) RecordCacheHit(endpoint string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) RecordCacheMiss(endpoint string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) RecordPersistFailure(endpoint string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) RecordRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, http.StatusText(code)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
