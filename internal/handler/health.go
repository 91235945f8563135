package handler

import (
	"net/http"

	"anan/internal/config"
	"anan/internal/httputil"
)

// HealthHandler serves the liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health reports liveness plus the running version
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": config.Version,
	})
}

// Healthz is the minimal plain-text probe
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Favicon answers browser favicon requests with 204 to keep 404 noise out
// of the logs
// GET /favicon.ico
func (h *HealthHandler) Favicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
