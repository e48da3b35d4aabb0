package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/auth"
	"github.com/sakif/readme-generator/internal/handler"
	"github.com/sakif/readme-generator/internal/model"
	"github.com/sakif/readme-generator/internal/service"
)

// =========================================================================
// STUBS
// =========================================================================

type stubAuthn struct {
	result    *service.AuthResult
	err       error
	gotCode   string
	loggedOut []string
}

func (s *stubAuthn) Login(_ context.Context, code string) (*service.AuthResult, error) {
	s.gotCode = code
	return s.result, s.err
}

func (s *stubAuthn) Logout(_ context.Context, userID string) {
	s.loggedOut = append(s.loggedOut, userID)
}

type stubAuthorizer struct{}

func (stubAuthorizer) AuthURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + state
}

type stubRepos struct {
	repos       []model.RepositorySummary
	doc         *model.Document
	err         error
	gotUserID   string
	gotFullName string
}

func (s *stubRepos) ListRepositories(_ context.Context, userID string) ([]model.RepositorySummary, error) {
	s.gotUserID = userID
	return s.repos, s.err
}

func (s *stubRepos) Analyze(_ context.Context, userID, fullName string) (*model.Document, error) {
	s.gotUserID, s.gotFullName = userID, fullName
	return s.doc, s.err
}

type stubRefiner struct {
	out        string
	err        error
	gotCurrent string
	gotRequest string
}

func (s *stubRefiner) Refine(_ context.Context, current, req string) (string, error) {
	s.gotCurrent, s.gotRequest = current, req
	return s.out, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var octo = &model.UserView{ID: "u1", ProviderID: "42", Username: "octo"}

func withUser(req *http.Request) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), octo))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newAuthHandler(authn *stubAuthn) *handler.AuthHandler {
	return handler.NewAuthHandler(authn, stubAuthorizer{},
		handler.CookieConfig{ClientURL: "http://localhost:5173/", Secure: true}, discardLogger())
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestHandleGitHubLogin_SetsStateAndRedirects(t *testing.T) {
	h := newAuthHandler(&stubAuthn{})

	rec := httptest.NewRecorder()
	h.HandleGitHubLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/github", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	state := findCookie(rec, "oauth_state")
	require.NotNil(t, state)
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
}

// =========================================================================
// CALLBACK TESTS
// =========================================================================

func callbackRequest(query, stateCookie string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/github/callback?"+query, nil)
	if stateCookie != "" {
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: stateCookie})
	}
	return req
}

func TestHandleGitHubCallback_Success(t *testing.T) {
	authn := &stubAuthn{result: &service.AuthResult{User: octo, Token: "signed.jwt.value"}}
	h := newAuthHandler(authn)

	rec := httptest.NewRecorder()
	h.HandleGitHubCallback(rec, callbackRequest("code=abc&state=s1", "s1"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "http://localhost:5173/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, "abc", authn.gotCode)

	session := findCookie(rec, auth.SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, "signed.jwt.value", session.Value)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Secure)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, 24*60*60, session.MaxAge)
	assert.Equal(t, "/", session.Path)
}

func TestHandleGitHubCallback_Failures(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		cookie   string
		loginErr error
		wantErr  string
	}{
		{name: "user denied", query: "error=access_denied&state=s1", cookie: "s1", wantErr: "access_denied"},
		{name: "state mismatch", query: "code=abc&state=evil", cookie: "s1", wantErr: "auth_failed"},
		{name: "missing state cookie", query: "code=abc&state=s1", wantErr: "auth_failed"},
		{name: "missing code", query: "state=s1", cookie: "s1", wantErr: "auth_failed"},
		{
			name: "code rejected", query: "code=used&state=s1", cookie: "s1",
			loginErr: apperror.UpstreamAuth("GitHub code exchange failed.", nil), wantErr: "auth_failed",
		},
		{
			name: "store down", query: "code=abc&state=s1", cookie: "s1",
			loginErr: apperror.Persistence(errors.New("disk full")), wantErr: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHandler(&stubAuthn{err: tt.loginErr})

			rec := httptest.NewRecorder()
			h.HandleGitHubCallback(rec, callbackRequest(tt.query, tt.cookie))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "http://localhost:5173?error="+tt.wantErr, rec.Header().Get("Location"))
			assert.Nil(t, findCookie(rec, auth.SessionCookieName))
		})
	}
}

// =========================================================================
// LOGOUT TESTS
// =========================================================================

func TestHandleLogout_ClearsCookieAndRevokes(t *testing.T) {
	authn := &stubAuthn{}
	h := newAuthHandler(authn)

	rec := httptest.NewRecorder()
	h.HandleLogout(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())
	assert.Equal(t, []string{"u1"}, authn.loggedOut)

	cleared := findCookie(rec, auth.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestHandleLogout_Anonymous(t *testing.T) {
	authn := &stubAuthn{}
	h := newAuthHandler(authn)

	rec := httptest.NewRecorder()
	h.HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, authn.loggedOut)
	assert.NotNil(t, findCookie(rec, auth.SessionCookieName))
}

// =========================================================================
// PROFILE TESTS
// =========================================================================

func TestHandleProfile(t *testing.T) {
	h := handler.NewUserHandler()

	rec := httptest.NewRecorder()
	h.HandleProfile(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "octo", body["username"])
	assert.Equal(t, "42", body["providerId"])
	assert.NotContains(t, rec.Body.String(), "token")
}

func TestHandleProfile_NoUser(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.NewUserHandler().HandleProfile(rec, httptest.NewRequest(http.MethodGet, "/api/user/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decodeError(t, rec).Error)
}

// =========================================================================
// GITHUB TESTS
// =========================================================================

func TestHandleListRepos(t *testing.T) {
	desc := "A demo"
	repos := &stubRepos{repos: []model.RepositorySummary{
		{ID: 1, Name: "demo", FullName: "octo/demo", Description: &desc},
		{ID: 2, Name: "bare", FullName: "octo/bare"},
	}}
	h := handler.NewGitHubHandler(repos, discardLogger())

	rec := httptest.NewRecorder()
	h.HandleListRepos(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/github/repos", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", repos.gotUserID)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "octo/demo", body[0]["full_name"])
	assert.Nil(t, body[1]["description"])
}

func TestHandleListRepos_UpstreamFailure(t *testing.T) {
	repos := &stubRepos{err: apperror.UpstreamRepo("Failed to fetch repositories from GitHub.", errors.New("503"))}
	h := handler.NewGitHubHandler(repos, discardLogger())

	rec := httptest.NewRecorder()
	h.HandleListRepos(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/github/repos", nil)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream_repo_error", decodeError(t, rec).Error)
}

func TestHandleAnalyze(t *testing.T) {
	repos := &stubRepos{doc: &model.Document{Readme: "# demo", RepoFullName: "octo/demo"}}
	h := handler.NewGitHubHandler(repos, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/github/analyze", strings.NewReader(`{"repoFullName":"octo/demo"}`))
	rec := httptest.NewRecorder()
	h.HandleAnalyze(rec, withUser(req))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"readme":"# demo","repoFullName":"octo/demo"}`, rec.Body.String())
	assert.Equal(t, "octo/demo", repos.gotFullName)
}

func TestHandleAnalyze_BadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"repoFullName":`},
		{name: "too large", body: `{"repoFullName":"` + strings.Repeat("a", 2<<20) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := &stubRepos{}
			h := handler.NewGitHubHandler(repos, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/github/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.HandleAnalyze(rec, withUser(req))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", decodeError(t, rec).Error)
			assert.Empty(t, repos.gotFullName)
		})
	}
}

// =========================================================================
// ERROR MAPPING TESTS
// =========================================================================

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperror.ValidationFailed("repoFullName", "Repository name is required."), 400, "validation_error"},
		{"not found", apperror.NotFound("repository", "octo/gone"), 404, "not_found"},
		{"upstream auth", apperror.UpstreamAuth("GitHub rejected the token.", nil), 502, "upstream_auth_error"},
		{"upstream repo", apperror.UpstreamRepo("Failed to fetch repository tree from GitHub.", nil), 502, "upstream_repo_error"},
		{"rate limited", apperror.RateLimited(nil), 429, "rate_limited"},
		{"invalid credentials", apperror.InvalidCredentials(nil), 500, "ai_misconfigured"},
		{"generation failed", apperror.GenerationFailed(errors.New("boom")), 502, "generation_failed"},
		{"refinement failed", apperror.RefinementFailed(errors.New("boom")), 502, "refinement_failed"},
		{"persistence", apperror.Persistence(errors.New("SELECT * FROM users")), 500, "internal_error"},
		{"unknown", errors.New("/var/lib/secret path"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewGitHubHandler(&stubRepos{err: tt.err}, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/github/analyze", strings.NewReader(`{"repoFullName":"octo/demo"}`))
			rec := httptest.NewRecorder()
			h.HandleAnalyze(rec, withUser(req))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.NotEmpty(t, body.Message)
			assert.NotContains(t, body.Message, "SELECT")
			assert.NotContains(t, body.Message, "/var/lib")
		})
	}
}

// =========================================================================
// REFINE TESTS
// =========================================================================

func TestHandleRefine(t *testing.T) {
	refiner := &stubRefiner{out: "# demo\n\nShorter."}
	h := handler.NewAIHandler(refiner, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/refine",
		strings.NewReader(`{"currentReadme":"# demo","userRequest":"make it shorter"}`))
	rec := httptest.NewRecorder()
	h.HandleRefine(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"readme":"# demo\n\nShorter."}`, rec.Body.String())
	assert.Equal(t, "# demo", refiner.gotCurrent)
	assert.Equal(t, "make it shorter", refiner.gotRequest)
}

func TestHandleRefine_RateLimited(t *testing.T) {
	h := handler.NewAIHandler(&stubRefiner{err: apperror.RateLimited(nil)}, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/refine",
		strings.NewReader(`{"currentReadme":"# demo","userRequest":"x"}`))
	rec := httptest.NewRecorder()
	h.HandleRefine(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Error)
}

// =========================================================================
// HEALTH TESTS
// =========================================================================

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.NewHealthHandler(stubPinger{}, discardLogger()).
		HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.NewHealthHandler(stubPinger{err: errors.New("closed")}, discardLogger()).
		HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
