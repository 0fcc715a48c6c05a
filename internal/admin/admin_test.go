package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqflux/reqflux/internal/builder"
	"github.com/reqflux/reqflux/internal/metrics"
	"github.com/reqflux/reqflux/internal/monitor"
	"github.com/reqflux/reqflux/internal/orchestrator"
	"github.com/reqflux/reqflux/internal/queue"
	"github.com/reqflux/reqflux/internal/transport"
)

func newTestServer() *Server {
	orch := orchestrator.New(orchestrator.DefaultConfig(), queue.NewManager(queue.DefaultConfig(), nil), transport.New(0), builder.New(nil), nil)
	mon := monitor.New(orch.Collector(), orch.Alerts(), orch.Queue(), nil)
	return New(":0", orch, mon, nil)
}

func TestHandleStatus_ReturnsJSONStatus(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "QueueSize")
}

func TestHandleHealthz_HealthyReturns200(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestHandleHealthz_CriticalReturns503(t *testing.T) {
	orch := orchestrator.New(orchestrator.DefaultConfig(), queue.NewManager(queue.DefaultConfig(), nil), transport.New(0), builder.New(nil), nil)
	mon := monitor.New(orch.Collector(), orch.Alerts(), orch.Queue(), nil)
	orch.Alerts().AddThreshold("custom.critical", metrics.Threshold{Severity: "critical", Value: 0, Comparison: metrics.ComparisonGT})
	orch.Alerts().CheckMetric("custom.critical", 1)

	s := New(":0", orch, mon, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleMetrics_ServesPrometheusFormat(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShutdown_ClosesWithoutError(t *testing.T) {
	s := newTestServer()
	require.NoError(t, s.Shutdown())
}
