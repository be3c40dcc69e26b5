package handlers

import "net/http"

// Health GET /healthz
func Health(w http.ResponseWriter, _ *http.Request) {
	RespondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
