// Package admin implements the Admin/Status HTTP Surface (component
// 4.L): operational endpoints layered over the Orchestrator and the
// Monitor Facade, routed with gorilla/mux.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reqflux/reqflux/internal/monitor"
	"github.com/reqflux/reqflux/internal/orchestrator"
)

// Server exposes /status, /healthz, /metrics, and the /docs/ Swagger UI
// over the running orchestrator.
type Server struct {
	logger *slog.Logger
	orch   *orchestrator.Orchestrator
	mon    *monitor.Facade

	router *mux.Router
	http   *http.Server
}

// New wires the router. addr is the listen address, e.g. ":8090".
func New(addr string, orch *orchestrator.Orchestrator, mon *monitor.Facade, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger, orch: orch, mon: mon, router: mux.NewRouter()}

	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(orch.Prometheus().Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.PathPrefix("/docs/").Handler(httpSwagger.WrapHandler)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving the admin surface until the listener
// fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("admin surface listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown closes the admin HTTP listener and any active connections
// immediately, without waiting for in-flight requests.
func (s *Server) Shutdown() error {
	return s.http.Close()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.GetStatus())
}

type healthResponse struct {
	Status         string  `json:"status"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	ActiveAlerts   int     `json:"active_alerts"`
	CriticalAlerts int     `json:"critical_alerts"`
	SystemLoad     float64 `json:"system_load_percent"`
	MemoryUsage    float64 `json:"memory_usage_percent"`
	ActiveRequests int     `json:"active_requests"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	health := s.mon.GetHealthStatus()
	resp := healthResponse{
		Status:         health.Status,
		UptimeSeconds:  health.Uptime.Seconds(),
		ActiveAlerts:   health.ActiveAlerts,
		CriticalAlerts: health.CriticalAlerts,
		SystemLoad:     health.SystemLoad,
		MemoryUsage:    health.MemoryUsage,
		ActiveRequests: health.ActiveRequests,
	}

	status := http.StatusOK
	if health.Status == "critical" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
