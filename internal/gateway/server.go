package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", s.handleHealth())
	if s.promview != nil {
		r.Handle("/metrics", s.promview)
	}

	// Admin endpoints. Auth applies only when a token is configured.
	r.Group(func(r chi.Router) {
		if s.config.AuthToken != "" {
			r.Use(authMiddleware(s.config.AuthToken))
		}
		r.Get("/status", s.handleStatus())
		r.Route("/api", func(r chi.Router) {
			r.Get("/models", s.handleListModels())
			r.Get("/models/{model}/budget", s.handleModelBudget())
			r.Post("/preview", s.handlePreview())
		})
		if s.hub != nil {
			r.Get("/ws/events", s.handleEvents())
		}
	})

	return r
}
