// Package metrics provides Prometheus metrics for the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests that no route matched.
const unmatchedRoute = "unmatched"

// HTTPMetrics contains Prometheus metrics for HTTP handler operations.
type HTTPMetrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec
	authFailuresTotal   *prometheus.CounterVec

	documentEventsTotal *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers HTTP metrics on registry.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"}, // route is the chi pattern, e.g. /users/{username}/documents
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6), // 100B to 10MB
		},
		[]string{"method", "route"},
	)

	m.authFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_auth_failures_total",
			Help: "Total number of requests rejected with 401 or 403",
		},
		[]string{"status_code"},
	)

	m.documentEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_events_total",
			Help: "Total number of document change events published",
		},
		[]string{"kind"}, // created, updated, deleted
	)
}

func (m *HTTPMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpResponseSize,
		m.authFailuresTotal,
		m.documentEventsTotal,
	}
}

// Describe implements the Collector interface
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *HTTPMetrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration, sizeBytes int) {
	code := strconv.Itoa(statusCode)
	m.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.httpResponseSize.WithLabelValues(method, route).Observe(float64(sizeBytes))
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		m.authFailuresTotal.WithLabelValues(code).Inc()
	}
}

// RecordDocumentEvent counts a published document event.
func (m *HTTPMetrics) RecordDocumentEvent(kind string) {
	m.documentEventsTotal.WithLabelValues(kind).Inc()
}

// Middleware records every request under its chi route pattern, so path
// parameters do not multiply label values.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RecordHTTPRequest(r.Method, route, status, time.Since(start), ww.BytesWritten())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// DocumentEventPublisher publishes document change events.
type DocumentEventPublisher interface {
	PublishDocumentEvent(username, kind string, documentID int64)
}

// CountingPublisher counts events before handing them to Next.
type CountingPublisher struct {
	Next    DocumentEventPublisher
	Metrics *HTTPMetrics
}

// PublishDocumentEvent implements DocumentEventPublisher.
func (p CountingPublisher) PublishDocumentEvent(username, kind string, documentID int64) {
	p.Metrics.RecordDocumentEvent(kind)
	p.Next.PublishDocumentEvent(username, kind, documentID)
}
