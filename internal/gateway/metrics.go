// ABOUTME: Prometheus collectors for capability calls, HTTP requests and the map cache
// ABOUTME: Each gateway owns its registry so tests can build isolated instances

package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/robot-gateway/internal/capability"
	"github.com/2389/robot-gateway/internal/dispatch"
	"github.com/2389/robot-gateway/internal/mapcache"
)

const metricsNamespace = "robot_gateway"

type metrics struct {
	registry *prometheus.Registry

	capabilityCalls    *prometheus.CounterVec
	capabilityDuration *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

var _ dispatch.Observer = (*metrics)(nil)

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		capabilityCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "capability_calls_total",
				Help:      "Capability calls by operation and outcome (ok, falsy, error).",
			},
			[]string{"op", "outcome"},
		),
		capabilityDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "capability_call_duration_seconds",
				Help:      "Latency of capability calls in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status code.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.capabilityCalls,
		m.capabilityDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// watchCache exports cache and marker store counters read at scrape time.
func (m *metrics) watchCache(cache *mapcache.MapCache, markers *mapcache.MarkerStore) {
	counter := func(name, help string, read func(mapcache.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: metricsNamespace, Subsystem: "map_cache", Name: name, Help: help},
			func() float64 { return float64(read(cache.Stats())) },
		)
	}

	m.registry.MustRegister(
		counter("hits_total", "Map reads served from the cache.", func(s mapcache.Stats) uint64 { return s.Hits }),
		counter("misses_total", "Map reads that missed the cache.", func(s mapcache.Stats) uint64 { return s.Misses }),
		counter("fetches_total", "Upstream map fetches.", func(s mapcache.Stats) uint64 { return s.Fetches }),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: metricsNamespace, Subsystem: "map_cache", Name: "entries", Help: "Cached map payloads."},
			func() float64 { return float64(cache.Stats().Entries) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: metricsNamespace, Name: "marker_sets", Help: "Stored marker sets."},
			func() float64 { return float64(markers.Len()) },
		),
	)
}

// ObserveCall implements dispatch.Observer.
func (m *metrics) ObserveCall(op capability.Op, outcome string, elapsed time.Duration) {
	m.capabilityCalls.WithLabelValues(string(op), outcome).Inc()
	m.capabilityDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

func (m *metrics) observeRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
