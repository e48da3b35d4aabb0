package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/model"
)

// SessionCookieName is the HttpOnly cookie that carries the session JWT.
const SessionCookieName = "jwt"

// Verifier resolves a raw session credential to the user it belongs to.
// service.AuthService implements it.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*model.UserView, error)
}

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue uses any as the key type. A package-private type means only
// this package can create a key of type contextKey, so no other package can read
// or shadow the user stored here.
type contextKey string

const userKey contextKey = "user"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "jwt" HttpOnly cookie, resolves it through the
// verifier, and stores the user view in the request context. Any gate failure
// answers 401 with a JSON error body and stops the chain.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new http.Handler that wraps it.
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := v.Verify(r.Context(), sessionCredential(r))
			if err != nil {
				writeGateError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user if a valid session is present, but never
// blocks the request. Logout uses it so a stale cookie can still be cleared.
//
// Handlers check for the user via UserFromContext; ok=false means anonymous.
func OptionalAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cred := sessionCredential(r); cred != "" {
				if user, err := v.Verify(r.Context(), cred); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userKey, user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user placed by RequireAuth or OptionalAuth.
func UserFromContext(ctx context.Context) (*model.UserView, bool) {
	u, ok := ctx.Value(userKey).(*model.UserView)
	return u, ok && u != nil
}

// WithUser returns a copy of ctx carrying user. Used by handler tests that
// bypass the middleware.
func WithUser(ctx context.Context, user *model.UserView) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// sessionCredential reads the session cookie. A missing cookie yields "".
func sessionCredential(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// writeGateError answers a failed gate check. The three session kinds are 401;
// anything else (a store outage while loading the user) is a 500.
func writeGateError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	message := "An internal error occurred"

	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperror.ErrInvalidSession):
		status, code = http.StatusUnauthorized, "invalid_session"
	case errors.Is(err, apperror.ErrUserNotFound):
		status, code = http.StatusUnauthorized, "user_not_found"
	}

	var appErr *apperror.AppError
	if status == http.StatusUnauthorized && errors.As(err, &appErr) {
		message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
