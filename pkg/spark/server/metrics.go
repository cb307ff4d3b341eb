package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "spark"

// Metrics exports connection and request counters to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	connections       prometheus.Counter
	connectionErrors  prometheus.Counter
	activeConnections prometheus.Gauge
	requests          *prometheus.CounterVec
	malformedRequests prometheus.Counter
	bytesWritten      prometheus.Counter
	requestDuration   prometheus.Histogram
}

// NewMetrics registers the server collectors with reg.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	metrics := server.NewMetrics(reg)
//	http.Handle("/metrics", metrics.Handler())
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		connections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		connectionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "connection_errors_total",
			Help:      "Total number of failed accepts, reads and writes",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "active_connections",
			Help:      "Connections currently being served",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of dispatched requests",
		}, []string{"method", "status"}),
		malformedRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "malformed_requests_total",
			Help:      "Total number of requests rejected by the parser",
		}),
		bytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "response_bytes_total",
			Help:      "Total response bytes written, headers included",
		}),
		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time from first byte read to response written",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
	m.activeConnections.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *Metrics) connError() {
	if m == nil {
		return
	}
	m.connectionErrors.Inc()
}

func (m *Metrics) malformed() {
	if m == nil {
		return
	}
	m.malformedRequests.Inc()
}

func (m *Metrics) request(method string, status int, written int64, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.bytesWritten.Add(float64(written))
	m.requestDuration.Observe(seconds)
}
