package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/progress-engine/internal/models"
)

func (s *Server) handleSubmitChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := s.certs.Submit(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err, "submit challenge")
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.certs.GetSubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "get submission")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := s.certs.Review(r.Context(), id, &req, reviewerName(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "review submission")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}
