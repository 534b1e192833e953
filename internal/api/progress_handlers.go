package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/progress-engine/internal/models"
)

func (s *Server) handleCompleteSection(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteSectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.progress.CompleteSection(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err, "record completion")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	moduleID := r.URL.Query().Get("module")

	result, err := s.progress.GetProgress(r.Context(), address, moduleID)
	if err != nil {
		respondServiceError(w, r, err, "get progress")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
