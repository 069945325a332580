package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iconidentify/skyfurl/internal/transcode"
)

// HealthHandler serves liveness checks.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Live handles GET /health. A missing ffmpeg is reported but not fatal;
// link previews without video still work.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"ffmpeg": transcode.IsAvailable(),
	})
}
