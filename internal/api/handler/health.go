package handler

import (
	"net/http"
	"time"

	"github.com/medialoom/socialpick/internal/hooks"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	hooks *hooks.Registry
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(registry *hooks.Registry) *HealthHandler {
	return &HealthHandler{hooks: registry}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	UptimeSec    int64  `json:"uptimeSec"`
	TrackedFiles int    `json:"trackedFiles"`
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		UptimeSec:    int64(time.Since(startTime).Seconds()),
		TrackedFiles: h.hooks.Len(),
	})
}
