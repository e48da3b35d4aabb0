package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/auth"
	"github.com/sakif/readme-generator/internal/service"
)

const stateCookieName = "oauth_state"

// Authenticator is the slice of service.AuthService the auth handler needs.
type Authenticator interface {
	Login(ctx context.Context, code string) (*service.AuthResult, error)
	Logout(ctx context.Context, userID string)
}

// AuthorizeURLer builds the provider's authorize URL for a state value.
type AuthorizeURLer interface {
	AuthURL(state string) string
}

// CookieConfig controls where the browser lands and how cookies are flagged.
type CookieConfig struct {
	ClientURL string // browser client origin, e.g. http://localhost:5173
	Secure    bool   // set the Secure flag (HTTPS only); off in development
}

// AuthHandler manages the GitHub OAuth login flow and session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, log the user in, set the session cookie
//   - HandleLogout         → revoke the GitHub grant (best-effort), clear the cookie
type AuthHandler struct {
	authn    Authenticator
	provider AuthorizeURLer
	cookies  CookieConfig
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here.
func NewAuthHandler(authn Authenticator, provider AuthorizeURLer, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	cookies.ClientURL = strings.TrimRight(cookies.ClientURL, "/")
	return &AuthHandler{
		authn:    authn,
		provider: provider,
		cookies:  cookies,
		logger:   logger,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /api/auth/github
//
// CSRF PROTECTION VIA STATE:
// A random state is stored in a short-lived cookie and sent to GitHub.
// HandleGitHubCallback verifies GitHub returned the same value, which proves the
// callback belongs to a flow this browser started.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /api/auth/github/callback?code=xxx&state=yyy
//
// Every outcome is a redirect to the browser client. Failures carry only a
// coarse ?error= code; details go to the log.
//   - user denied on GitHub     → {client}?error=access_denied
//   - bad state or missing code → {client}?error=auth_failed
//   - GitHub rejected the code  → {client}?error=auth_failed
//   - anything else             → {client}?error=internal_error
//   - success                   → {client}/dashboard with the "jwt" cookie set
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// The state cookie is single-use whatever happens next.
	stateCookie, cookieErr := r.Cookie(stateCookieName)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.redirectWithError(w, r, "access_denied")
		return
	}

	if cookieErr != nil || stateCookie.Value == "" || query.Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: missing or mismatched state")
		h.redirectWithError(w, r, "auth_failed")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.logger.Warn("auth callback: missing code")
		h.redirectWithError(w, r, "auth_failed")
		return
	}

	result, err := h.authn.Login(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		if errors.Is(err, apperror.ErrUpstreamAuth) {
			h.redirectWithError(w, r, "auth_failed")
			return
		}
		h.redirectWithError(w, r, "internal_error")
		return
	}

	// HttpOnly keeps the JWT away from page scripts; SameSite=Lax still sends it
	// on the top-level navigation back from GitHub.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.cookies.ClientURL+"/dashboard", http.StatusSeeOther)
}

// HandleLogout revokes the user's GitHub grant and clears the session cookie.
//
// HTTP: POST /api/auth/logout
// Auth: Optional. A stale or missing cookie still gets cleared.
//
// Revocation is best-effort; the response is 200 even if GitHub fails. The JWT
// itself stays valid until it expires, but the browser no longer holds it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.authn.Logout(r.Context(), user.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.cookies.ClientURL+"?error="+url.QueryEscape(code), http.StatusSeeOther)
}
