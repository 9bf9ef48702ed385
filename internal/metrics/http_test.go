package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *HTTPMetrics {
	t.Helper()
	m, err := NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/users/{username}/documents", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[]}`))
	})
	r.Get("/private", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	for _, path := range []string{"/users/alice/documents", "/users/bob/documents", "/private", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/users/{username}/documents", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/private", "401")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.authFailuresTotal.WithLabelValues("401")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")))
}

type recordingPublisher struct {
	kinds []string
}

func (p *recordingPublisher) PublishDocumentEvent(_, kind string, _ int64) {
	p.kinds = append(p.kinds, kind)
}

func TestCountingPublisher(t *testing.T) {
	m := newTestMetrics(t)
	next := &recordingPublisher{}
	p := CountingPublisher{Next: next, Metrics: m}

	p.PublishDocumentEvent("alice", "created", 1)
	p.PublishDocumentEvent("alice", "updated", 1)
	p.PublishDocumentEvent("alice", "updated", 1)

	assert.Equal(t, []string{"created", "updated", "updated"}, next.kinds)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.documentEventsTotal.WithLabelValues("created")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.documentEventsTotal.WithLabelValues("updated")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordDocumentEvent("deleted")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `document_events_total{kind="deleted"} 1`))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewHTTPMetrics(registry)
	require.NoError(t, err)
	_, err = NewHTTPMetrics(registry)
	assert.Error(t, err)
}
