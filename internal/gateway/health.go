package gateway

import (
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "degraded"
	Models int    `json:"models"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when the catalog is reachable (or absent), 503 when the
// catalog backing store fails.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if s.catalog != nil {
			models, err := s.catalog.Models(r.Context())
			if err != nil {
				s.logger.Warn("gateway: catalog unreachable", "error", err)
				resp.Status = "degraded"
			} else {
				resp.Models = len(models)
			}
		}

		code := http.StatusOK
		if resp.Status == "degraded" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
