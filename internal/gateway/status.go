package gateway

import (
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime         time.Duration `json:"uptime_seconds"`
	CachedWindows  int           `json:"cached_windows"`
	EventListeners int           `json:"event_listeners"`
	Models         int           `json:"models"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Uptime:        time.Since(s.startedAt).Truncate(time.Second),
			CachedWindows: s.resolver.Cache().Len(),
		}

		if s.hub != nil {
			resp.EventListeners = s.hub.Subscribers()
		}

		if s.catalog != nil {
			if models, err := s.catalog.Models(r.Context()); err == nil {
				resp.Models = len(models)
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
