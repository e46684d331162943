// Package metrics exposes Prometheus counters for session activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the server. Each collector owns
// its registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	VersionEvents *prometheus.CounterVec
	PathQueries   *prometheus.CounterVec
	InboxImports  *prometheus.CounterVec
	SSEClients    prometheus.Gauge
}

// NewCollector creates a collector with the given namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		VersionEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layout_version_events_total",
				Help:      "Layout version transitions by kind",
			},
			[]string{"event"},
		),
		PathQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "path_queries_total",
				Help:      "Two-station path queries by outcome",
			},
			[]string{"outcome"},
		),
		InboxImports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inbox_imports_total",
				Help:      "Layout files picked up from the inbox directory",
			},
			[]string{"status"},
		),
		SSEClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sse_clients",
				Help:      "Connected event stream clients",
			},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.VersionEvents,
		c.PathQueries,
		c.InboxImports,
		c.SSEClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveVersionEvent counts a version controller transition
func (c *Collector) ObserveVersionEvent(event string) {
	c.VersionEvents.WithLabelValues(event).Inc()
}

// ObservePathQuery counts a completed two-anchor selection
func (c *Collector) ObservePathQuery(found bool) {
	outcome := "no_path"
	if found {
		outcome = "path"
	}
	c.PathQueries.WithLabelValues(outcome).Inc()
}

// ObserveInboxImport counts a file taken from the inbox
func (c *Collector) ObserveInboxImport(ok bool) {
	status := "failed"
	if ok {
		status = "imported"
	}
	c.InboxImports.WithLabelValues(status).Inc()
}

// ClientConnected tracks event stream subscribers
func (c *Collector) ClientConnected() { c.SSEClients.Inc() }

// ClientDisconnected tracks event stream subscribers
func (c *Collector) ClientDisconnected() { c.SSEClients.Dec() }
