// Package github is a minimal wrapper around GitHub's REST API v3, covering
// just the endpoints the README pipeline needs: the caller's repositories and
// the recursive file tree of one repository.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/model"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	apiVersion = "2022-11-28"
	userAgent  = "readme-generator"
)

// Client calls the GitHub REST API on behalf of a user. The user's token is
// passed per call, so one Client serves every request.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient returns a ready-to-use GitHub API client. An empty baseURL means
// api.github.com; timeout bounds each outbound request.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// ListRepositories returns the caller's 20 most recently updated repositories.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]model.RepositorySummary, error) {
	var repos []model.RepositorySummary
	if err := c.get(ctx, token, "/user/repos?sort=updated&per_page=20", &repos); err != nil {
		return nil, apperror.UpstreamRepo("Failed to fetch repositories from GitHub.", err)
	}
	if repos == nil {
		repos = []model.RepositorySummary{}
	}
	return repos, nil
}

// GetFileTree returns every path in the default branch of fullName ("owner/name").
//
// It is three dependent calls, each of which can fail on its own:
//  1. GET /repos/{full}                          → default_branch
//  2. GET /repos/{full}/branches/{branch}        → commit.sha
//  3. GET /repos/{full}/git/trees/{sha}?recursive=1 → paths
//
// A repository with no commits has no branch, so step 2 fails and an empty
// repository is always an error rather than an empty slice.
func (c *Client) GetFileTree(ctx context.Context, token, fullName string) ([]string, error) {
	repoPath, err := repoPath(fullName)
	if err != nil {
		return nil, apperror.UpstreamRepo("Failed to fetch repository tree from GitHub.", err)
	}

	// Step 1: default branch.
	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.get(ctx, token, repoPath, &repo); err != nil {
		return nil, apperror.UpstreamRepo("Failed to fetch repository tree from GitHub.",
			fmt.Errorf("getting repository: %w", err))
	}
	if repo.DefaultBranch == "" {
		return nil, apperror.UpstreamRepo("Failed to fetch repository tree from GitHub.",
			errors.New("repository has no default branch"))
	}

	// Step 2: head commit of that branch.
	var branch struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := c.get(ctx, token, repoPath+"/branches/"+url.PathEscape(repo.DefaultBranch), &branch); err != nil {
		return nil, apperror.UpstreamRepo("Failed to fetch repository tree from GitHub.",
			fmt.Errorf("getting branch %s: %w", repo.DefaultBranch, err))
	}
	if branch.Commit.SHA == "" {
		return nil, apperror.UpstreamRepo("Failed to fetch repository tree from GitHub.",
			fmt.Errorf("branch %s has no commit", repo.DefaultBranch))
	}

	// Step 3: the recursive tree.
	var tree struct {
		Tree []struct {
			Path string `json:"path"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := c.get(ctx, token, repoPath+"/git/trees/"+url.PathEscape(branch.Commit.SHA)+"?recursive=1", &tree); err != nil {
		return nil, apperror.UpstreamRepo("Failed to fetch repository tree from GitHub.",
			fmt.Errorf("getting tree %s: %w", branch.Commit.SHA, err))
	}

	if tree.Truncated {
		c.logger.Warn("repository tree truncated by GitHub",
			slog.String("repo", fullName),
			slog.Int("paths", len(tree.Tree)),
		)
	}

	paths := make([]string, 0, len(tree.Tree))
	for _, entry := range tree.Tree {
		paths = append(paths, entry.Path)
	}
	return paths, nil
}

// repoPath turns "owner/name" into an escaped "/repos/owner/name".
func repoPath(fullName string) (string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid repository name %q", fullName)
	}
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name), nil
}

// get performs an authenticated GET against path and decodes JSON into v.
func (c *Client) get(ctx context.Context, token, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)

	// oauth2.NewClient wraps c.http (taken from the context) with a transport
	// that adds "Authorization: Bearer <token>".
	authed := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, c.http),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	)

	resp, err := authed.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("github request failed",
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("github: unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
