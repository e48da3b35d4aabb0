package handler

import (
	"net/http"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/auth"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct{}

// NewUserHandler creates a UserHandler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// HandleProfile returns the current user.
//
// HTTP: GET /api/user/profile
// Auth: Required
//
// The user view is placed in the context by auth.RequireAuth and never
// carries the GitHub access token.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}
	writeJSON(w, http.StatusOK, user)
}
