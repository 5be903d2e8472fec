package metrics

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

func TestCounters(t *testing.T) {
	m := New()
	m.EntryWritten("created")
	m.EntryWritten("created")
	m.EntryWritten("deleted")
	m.PublishFailed()
	m.MirrorExported(12, nil)
	m.MirrorExported(0, errors.New("quota"))
	m.ObserveHTTP(http.MethodGet, "GET /entries", 200, 5*time.Millisecond)
	m.RateLimited()
	m.SuspiciousRequest()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.entryWrites.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishFailures))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.mirrorRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mirrorExports.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /entries", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.suspicious))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.EntryWritten("updated")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ledgerbook_entry_writes_total{action="updated"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.EntryWritten("created")
	m.PublishFailed()
	m.MirrorExported(1, nil)
	m.ObserveHTTP("GET", "", 200, time.Second)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
