package handlers

import (
	"net/http"

	"miniml-backend/core/monitoring"
)

// SystemHandler serves service-level endpoints
type SystemHandler struct {
	metrics *monitoring.MetricsExporter
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(metrics *monitoring.MetricsExporter) *SystemHandler {
	return &SystemHandler{metrics: metrics}
}

// Root handles GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Welcome to MiniML - Predictive Quality Control Backend API",
	})
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "miniml-backend",
	})
}

// Metrics handles GET /metrics
func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.metrics.GetPrometheusMetrics()))
}
