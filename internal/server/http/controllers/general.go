package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dpa-newslab/dpa-digitalwires-wireq-example/internal/runtime"
)

// Operational route names.
const (
	RouteHealth  = "healthz"
	RouteStats   = "stats"
	RouteMetrics = "metrics"
)

// GeneralController handles the operational endpoints. None of them count
// against the rate limit.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers /healthz, /v1/stats and, when the runtime has
// metrics, /metrics.
func (c *GeneralController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", c.handleHealth).Methods(http.MethodGet).Name(RouteHealth)
	r.HandleFunc("/v1/stats", c.handleStats).Methods(http.MethodGet).Name(RouteStats)
	if m := c.rt.Metrics(); m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet).Name(RouteMetrics)
	}
}

// handleHealth returns 200 {"status":"ok"} if healthy, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, msgServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStats returns entry, receipt and rate window counters.
func (c *GeneralController) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, c.rt.Stats())
}
