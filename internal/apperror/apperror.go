// Package apperror defines the typed failures every layer returns.
//
// Each kind has a sentinel (checked with errors.Is) and a constructor that wraps
// the sentinel in an *AppError carrying a human-readable message. Services return
// these; only internal/handler maps them to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	// Session gate failures.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidSession  = errors.New("invalid session")
	ErrUserNotFound    = errors.New("user not found")

	// Upstream provider failures.
	ErrUpstreamAuth = errors.New("upstream auth error")
	ErrUpstreamRepo = errors.New("upstream repository error")

	// Completion backend failures.
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidCredentials = errors.New("invalid completion credentials")
	ErrGenerationFailed   = errors.New("generation failed")
	ErrRefinementFailed   = errors.New("refinement failed")

	ErrPersistence = errors.New("persistence error")
)

type AppError struct {
	Err     error  // sentinel identifying the kind
	Message string // Human-readable error message, safe to show a client
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error, logged but never returned to a client
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated means no session credential was presented.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "Not authorized, no token",
	}
}

// InvalidSession means the credential failed signature, issuer or expiry checks.
func InvalidSession(cause error) *AppError {
	return &AppError{
		Err:     ErrInvalidSession,
		Message: "Not authorized, token invalid",
		Cause:   cause,
	}
}

// UserNotFound means the credential was valid but its user record is gone.
func UserNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrUserNotFound,
		Message: "User not found",
		Field:   id,
	}
}

func UpstreamAuth(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstreamAuth,
		Message: message,
		Cause:   cause,
	}
}

func UpstreamRepo(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstreamRepo,
		Message: message,
		Cause:   cause,
	}
}

func RateLimited(cause error) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: "Rate limit exceeded. Please try again in a few minutes.",
		Cause:   cause,
	}
}

// InvalidCredentials is an operator problem: the completion backend rejected
// the service's API key. Users cannot fix it by retrying.
func InvalidCredentials(cause error) *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "The AI service is misconfigured. Please contact the operator.",
		Cause:   cause,
	}
}

func GenerationFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrGenerationFailed,
		Message: "Failed to generate README from AI. Please try again.",
		Cause:   cause,
	}
}

func RefinementFailed(cause error) *AppError {
	return &AppError{
		Err:     ErrRefinementFailed,
		Message: "Failed to refine README from AI.",
		Cause:   cause,
	}
}

func Persistence(cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: "An internal error occurred",
		Cause:   cause,
	}
}
