package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/progress-engine/internal/models"
)

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	result, err := s.certs.CheckEligibility(r.Context(), address)
	if err != nil {
		respondServiceError(w, r, err, "check eligibility")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req models.ClaimRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.certs.Claim(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err, "claim certification")
		return
	}

	status := http.StatusCreated
	if result.Already {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	moduleID := chi.URLParam(r, "moduleId")

	claim, err := s.certs.GetClaim(r.Context(), address, moduleID)
	if err != nil {
		respondServiceError(w, r, err, "get claim")
		return
	}

	respondJSON(w, http.StatusOK, claim)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	claims, err := s.certs.ListCertifications(r.Context(), address)
	if err != nil {
		respondServiceError(w, r, err, "list certifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"claims": claims,
		"total":  len(claims),
	})
}
