package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestObserveSearch(t *testing.T) {
	m := New()
	m.ObserveSearch("chunks", time.Now(), nil)
	m.ObserveSearch("chunks", time.Now(), nil)
	m.ObserveSearch("chunks", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, counterValue(t, m, "docqa_searches_total", map[string]string{"kind": "chunks", "status": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, m, "docqa_searches_total", map[string]string{"kind": "chunks", "status": "error"}))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveSearch("chunks", time.Now(), nil) })
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.SessionsDeleted.Inc()

	assert.Equal(t, 1.0, counterValue(t, a, "docqa_sessions_deleted_total", nil))
	assert.Equal(t, 0.0, counterValue(t, b, "docqa_sessions_deleted_total", nil))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.DocumentsIngested.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `docqa_documents_ingested_total{status="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
