package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceTemplateApplication(t *testing.T) {
	m := NewMetricsService()
	m.ObserveTemplateApplication(map[string]int{"success": 2, "error": 1}, 4, 15*time.Millisecond)
	m.ObserveTemplateApplication(map[string]int{"skipped": 3}, 0, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.applyOutcomes.WithLabelValues("success")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.applyOutcomes.WithLabelValues("skipped")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.recordsGenerated))

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.ItemsScheduled)
	assert.Equal(t, uint64(4), snapshot.RecordsGenerated)
}

func TestMetricsServiceJobsAndHTTP(t *testing.T) {
	m := NewMetricsService()
	m.RecordJob("apply-defaults", nil)
	m.RecordJob("apply-defaults", errors.New("boom"))
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/templates", http.StatusOK, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobOutcomes.WithLabelValues("apply-defaults", "failure")))
	snapshot := m.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.0001)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "background_jobs_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveTemplateApplication(map[string]int{"success": 1}, 1, time.Millisecond)
		m.RecordStoreMutation("ingest")
		m.RecordJob("x", nil)
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
