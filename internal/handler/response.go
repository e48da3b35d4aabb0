package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "rate_limited", "message": "Rate limit exceeded. Please try again in a few minutes."}
//
// The frontend always knows what fields to expect, regardless of status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/readme-generator/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. A README plus an edit request fits
// comfortably.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// MessageResponse is a body carrying only a human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set BEFORE writing the body; once Encode writes,
// header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorMapping pairs a sentinel with its HTTP status and machine-readable code.
type errorMapping struct {
	sentinel error
	status   int
	code     string
}

// errorMappings is checked in order; the first sentinel found in the chain wins.
var errorMappings = []errorMapping{
	{apperror.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{apperror.ErrInvalidSession, http.StatusUnauthorized, "invalid_session"},
	{apperror.ErrUserNotFound, http.StatusUnauthorized, "user_not_found"},
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrUpstreamAuth, http.StatusBadGateway, "upstream_auth_error"},
	{apperror.ErrUpstreamRepo, http.StatusBadGateway, "upstream_repo_error"},
	{apperror.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{apperror.ErrInvalidCredentials, http.StatusInternalServerError, "ai_misconfigured"},
	{apperror.ErrGenerationFailed, http.StatusBadGateway, "generation_failed"},
	{apperror.ErrRefinementFailed, http.StatusBadGateway, "refinement_failed"},
	{apperror.ErrPersistence, http.StatusInternalServerError, "internal_error"},
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// The service layer returns apperror kinds; only this function knows about
// HTTP. errors.Is walks the whole chain, so wrapping with fmt.Errorf("...: %w")
// anywhere on the way up is fine.
//
// Only AppError.Message reaches the client. Causes (upstream bodies, SQL
// errors) stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, m := range errorMappings {
			if errors.Is(err, m.sentinel) {
				writeJSON(w, m.status, ErrorResponse{Error: m.code, Message: appErr.Message})
				return
			}
		}
	}

	// Unknown error: a generic 500. The raw message might contain file paths
	// or query text, so it is never echoed.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a size-capped JSON body into v. Malformed input is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperror.ValidationFailed("body", "Request body is too large.")
		}
		return apperror.ValidationFailed("body", "Invalid JSON in request body.")
	}
	return nil
}
