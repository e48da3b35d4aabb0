package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/readme-generator/internal/apperror"
)

// DefaultGitHubAPIURL is the public GitHub REST API base.
const DefaultGitHubAPIURL = "https://api.github.com"

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object; we only unmarshal the fields we need.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID, stable across renames
	Login     string `json:"login"`      // GitHub username, e.g. "octocat"
	AvatarURL string `json:"avatar_url"` // Profile picture URL
}

// ProviderID is the numeric GitHub id rendered as the decimal string we store.
func (u *GitHubUser) ProviderID() string {
	return strconv.FormatInt(u.ID, 10)
}

// ProviderConfig configures a GitHubProvider. Empty endpoint fields fall back
// to github.com, so production only sets the credentials.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	AuthURL  string // authorize endpoint override
	TokenURL string // token endpoint override
	APIURL   string // REST API base override

	HTTPClient *http.Client
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The server redirects the user to GitHub's authorization endpoint
//     with the ClientID and the requested scopes.
//  2. The user approves (or denies) the request on GitHub.
//  3. GitHub redirects back to the CallbackURL with a short-lived "code".
//  4. The server exchanges the code for an access token (server-to-server).
//  5. The server uses the access token to call the GitHub API.
//
// The access token is kept server-side. It is needed again later to list
// repositories, so it is stored (sealed) on the user record.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
	client *http.Client
}

// NewGitHubProvider creates a GitHubProvider.
//
// Scopes we request:
//   - "repo": read access to the user's private repositories' trees
//   - "user": profile (id, login, avatar)
func NewGitHubProvider(cfg ProviderConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultGitHubAPIURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"repo", "user"},
			Endpoint:     endpoint,
		},
		apiURL: apiURL,
		client: client,
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// STATE PARAMETER:
// The state is a random string we generate and store in a cookie before
// redirecting. When GitHub calls back, we verify the returned state matches
// our cookie, which stops an attacker from completing an OAuth flow for their
// own account inside the victim's browser.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades the one-time authorization code for a GitHub access token.
// Any failure, including an empty token, is an UpstreamAuth error.
func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", apperror.UpstreamAuth("Missing authorization code.", nil)
	}

	// x/oauth2 picks up the HTTP client from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", apperror.UpstreamAuth("GitHub code exchange failed.", err)
	}
	if tok.AccessToken == "" {
		return "", apperror.UpstreamAuth("GitHub returned an empty access token.", nil)
	}
	return tok.AccessToken, nil
}

// FetchIdentity calls GET /user with the given token.
func (p *GitHubProvider) FetchIdentity(ctx context.Context, accessToken string) (*GitHubUser, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/user", nil)
	if err != nil {
		return nil, apperror.UpstreamAuth("GitHub identity request failed.", err)
	}
	setGitHubHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperror.UpstreamAuth("GitHub identity request failed.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperror.UpstreamAuth("GitHub identity request failed.",
			fmt.Errorf("GET /user returned status %d: %s", resp.StatusCode, body))
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, apperror.UpstreamAuth("GitHub identity response was malformed.", err)
	}
	if ghUser.ID == 0 {
		return nil, apperror.UpstreamAuth("GitHub returned an invalid user.", errors.New("user id is 0"))
	}

	return &ghUser, nil
}

// RevokeGrant deletes the OAuth grant for accessToken so GitHub forgets the
// authorization. It authenticates as the OAuth app with basic auth.
//
// GitHub API docs: https://docs.github.com/en/rest/apps/oauth-applications#delete-an-app-authorization
func (p *GitHubProvider) RevokeGrant(ctx context.Context, accessToken string) error {
	payload, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return fmt.Errorf("auth: encoding revoke body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/applications/%s/grant", p.apiURL, url.PathEscape(p.config.ClientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("auth: building revoke request: %w", err)
	}
	setGitHubHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: revoking grant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("auth: revoke grant returned status %d", resp.StatusCode)
	}
	return nil
}

func setGitHubHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "readme-generator")
}
