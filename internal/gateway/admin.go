package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/internal/observe"
	"github.com/braidhq/braid/pkg/message"
)

// handleListModels returns the persisted model catalog as JSON.
func (s *Server) handleListModels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.catalog == nil {
			http.Error(w, "catalog not available", http.StatusServiceUnavailable)
			return
		}

		models, err := s.catalog.Models(r.Context())
		if err != nil {
			s.logger.Error("gateway: list models failed", "error", err)
			http.Error(w, "failed to list models", http.StatusInternalServerError)
			return
		}
		if models == nil {
			models = []ModelEntry{}
		}

		writeJSON(w, http.StatusOK, models)
	}
}

// BudgetResponse is the JSON response for GET /api/models/{model}/budget.
type BudgetResponse struct {
	Model          string                `json:"model"`
	RecommendedCtx int                   `json:"recommended_ctx"`
	Budget         ctxengine.TokenBudget `json:"budget"`
}

// handleModelBudget resolves the model's context window and returns the
// derived tiered budget.
func (s *Server) handleModelBudget() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model := chi.URLParam(r, "model")
		if model == "" {
			http.Error(w, "missing model", http.StatusBadRequest)
			return
		}

		window := s.resolver.ContextWindow(r.Context(), model)
		writeJSON(w, http.StatusOK, BudgetResponse{
			Model:          model,
			RecommendedCtx: s.resolver.RecommendedCtx(r.Context(), model),
			Budget:         ctxengine.BudgetForWindow(window),
		})
	}
}

// PreviewRequest is the JSON body for POST /api/preview.
type PreviewRequest struct {
	Model          string            `json:"model"`
	SystemPrompt   string            `json:"system_prompt"`
	ConversationID string            `json:"conversation_id,omitempty"`
	RAGContext     string            `json:"rag_context,omitempty"`
	UserID         string            `json:"user_id,omitempty"`
	Messages       []message.Message `json:"messages"`
}

// handlePreview runs a full prompt build and returns the result with
// its token breakdown. Builds through this endpoint count toward
// metrics and the event stream like any other build.
func (s *Server) handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Model == "" {
			http.Error(w, "missing model", http.StatusBadRequest)
			return
		}

		result := s.assembler.BuildPrompt(r.Context(), ctxengine.BuildRequest{
			Messages:       req.Messages,
			SystemPrompt:   req.SystemPrompt,
			Model:          req.Model,
			ConversationID: req.ConversationID,
			RAGContext:     req.RAGContext,
			UserID:         req.UserID,
		})

		if s.metrics != nil {
			s.metrics.RecordBuild(result)
		}
		if s.hub != nil {
			s.hub.Publish(observe.EventFromBuild(req.Model, req.ConversationID, result))
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
