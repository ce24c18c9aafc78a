package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"somaai-backend/internal/domain"
)

// Stable error codes surfaced to clients. Messages may evolve; codes do not.
const (
	codeInvalidInput  = "invalid_input"
	codeNotFound      = "not_found"
	codeRateLimited   = "rate_limited"
	codeSafetyBlocked = "safety_blocked"
	codeUnauthorized  = "unauthorized"
	codeInternal      = "internal_error"
)

type errorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after,omitempty"` // seconds
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeDomainError maps domain sentinels onto HTTP statuses and stable codes.
// Unknown errors degrade to a generic 500 with no detail leakage.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedLanguage):
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound,
			"Session not found or expired. Please create a new session.")
	case errors.Is(err, domain.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:      "Rate limit exceeded. Please wait a moment before sending another message.",
			Code:       codeRateLimited,
			RetryAfter: int(s.limiter.RetryAfter().Seconds()),
		})
	case errors.Is(err, domain.ErrSafetyBlocked):
		writeError(w, http.StatusForbidden, codeSafetyBlocked,
			"Your message could not be processed due to content policy restrictions. Please rephrase your question in an educational context.")
	default:
		s.log.Error().Err(err).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, codeInternal,
			"An unexpected error occurred. Please try again.")
	}
}
