package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	srv, ln := startServer(t, Config{Metrics: metrics})

	roundTrip(t, ln, "GET /echo/abc HTTP/1.1\r\n\r\n")
	roundTrip(t, ln, "GET /echo/abc HTTP/1.1\r\n\r\n")
	roundTrip(t, ln, "PUT /nowhere HTTP/1.1\r\n\r\n")
	roundTrip(t, ln, "not a request\r\n\r\n")
	drain(t, srv)

	if got := testutil.ToFloat64(metrics.connections); got != 4 {
		t.Errorf("connections_total = %v, want 4", got)
	}
	if got := testutil.ToFloat64(metrics.activeConnections); got != 0 {
		t.Errorf("active_connections = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "200")); got != 2 {
		t.Errorf("requests_total{GET,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("OTHER", "404")); got != 1 {
		t.Errorf("requests_total{OTHER,404} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.malformedRequests); got != 1 {
		t.Errorf("malformed_requests_total = %v, want 1", got)
	}

	written := testutil.ToFloat64(metrics.bytesWritten)
	if uint64(written) == 0 || uint64(written) > srv.Stats().BytesWritten.Load() {
		t.Errorf("response_bytes_total = %v, stats say %d", written, srv.Stats().BytesWritten.Load())
	}
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.request("GET", 200, 10, 0.001)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`spark_http_requests_total{method="GET",status="200"} 1`,
		"spark_http_response_bytes_total 10",
		"spark_http_request_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.connOpened()
	m.connClosed()
	m.connError()
	m.malformed()
	m.request("GET", 200, 1, 0)
}
