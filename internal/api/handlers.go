package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/leaderboard"
	"github.com/terra-clan/progress-engine/internal/models"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondServiceError maps service errors to HTTP responses. Unexpected
// errors are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, models.ErrModuleNotFound):
		respondError(w, http.StatusNotFound, "module_not_found", err.Error())
	case errors.Is(err, models.ErrChapterNotFound):
		respondError(w, http.StatusNotFound, "chapter_not_found", err.Error())
	case errors.Is(err, models.ErrChallengeNotFound):
		respondError(w, http.StatusNotFound, "challenge_not_found", err.Error())
	case errors.Is(err, models.ErrClaimNotFound):
		respondError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, models.ErrSubmissionNotFound):
		respondError(w, http.StatusNotFound, "submission_not_found", err.Error())
	case errors.Is(err, models.ErrVersionConflict):
		respondError(w, http.StatusConflict, "conflict", "progress was updated concurrently, retry the request")
	case errors.Is(err, models.ErrAlreadyReviewed):
		respondError(w, http.StatusConflict, "already_reviewed", err.Error())
	default:
		slog.Error("failed to "+action,
			"error", err,
			"path", r.URL.Path,
		)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

// maxBodyBytes caps request bodies on every JSON route
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds 1 MiB")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	ready := true
	for name, err := range results {
		if err != nil {
			slog.Warn("dependency not ready", "dependency", name, "error", err)
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Data:    map[string]interface{}{"status": "not_ready", "checks": checks},
			Error:   &apiError{Code: "not_ready", Message: "service not ready"},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// Curriculum handlers

type moduleSummary struct {
	ID          curriculum.ModuleID  `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Scoring     curriculum.Scoring   `json:"scoring"`
	ClaimMode   curriculum.ClaimMode `json:"claimMode"`
	Chapters    int                  `json:"chapters"`
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules := s.registry.Modules()

	summaries := make([]moduleSummary, 0, len(modules))
	for _, mod := range modules {
		summaries = append(summaries, moduleSummary{
			ID:          mod.ID,
			Title:       mod.Title,
			Description: mod.Description,
			Scoring:     mod.Scoring,
			ClaimMode:   mod.ClaimMode,
			Chapters:    len(mod.Chapters),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"modules": summaries,
		"total":   len(summaries),
	})
}

func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleId")

	mod, ok := s.registry.LookupKey(moduleID)
	if !ok {
		respondError(w, http.StatusNotFound, "module_not_found", "module not found")
		return
	}

	respondJSON(w, http.StatusOK, mod)
}

func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	tiers := s.registry.Tiers()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tiers": tiers,
		"total": len(tiers),
	})
}

// Leaderboard handlers

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "moduleId")

	mod, ok := s.registry.LookupKey(moduleID)
	if !ok {
		respondError(w, http.StatusNotFound, "module_not_found", "module not found")
		return
	}
	if mod.Scoring != curriculum.ScoringByLevel {
		respondError(w, http.StatusBadRequest, "validation_error", "module "+moduleID+" does not award points")
		return
	}
	if s.board == nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "leaderboard is not configured")
		return
	}

	limit := leaderboard.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := s.board.Top(r.Context(), mod.ID.String(), limit)
	if err != nil {
		respondServiceError(w, r, err, "read leaderboard")
		return
	}

	resp := map[string]interface{}{
		"moduleId": mod.ID,
		"entries":  entries,
		"total":    len(entries),
	}

	if address := r.URL.Query().Get("address"); address != "" {
		normalized, err := models.NormalizeAddress(address)
		if err != nil {
			respondServiceError(w, r, err, "read leaderboard")
			return
		}
		me, err := s.board.Rank(r.Context(), mod.ID.String(), normalized)
		if err != nil {
			respondServiceError(w, r, err, "read leaderboard")
			return
		}
		resp["me"] = me
	}

	respondJSON(w, http.StatusOK, resp)
}
