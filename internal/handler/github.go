package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/auth"
	"github.com/sakif/readme-generator/internal/model"
)

// RepoAnalyzer is the slice of service.RepoService the handler needs.
type RepoAnalyzer interface {
	ListRepositories(ctx context.Context, userID string) ([]model.RepositorySummary, error)
	Analyze(ctx context.Context, userID, repoFullName string) (*model.Document, error)
}

// AnalyzeRequest is the JSON body for POST /api/github/analyze.
type AnalyzeRequest struct {
	RepoFullName string `json:"repoFullName"` // "owner/name"
}

// GitHubHandler exposes the signed-in user's repositories and the
// tree-to-README pipeline.
type GitHubHandler struct {
	repos  RepoAnalyzer
	logger *slog.Logger
}

// NewGitHubHandler creates a GitHubHandler.
func NewGitHubHandler(repos RepoAnalyzer, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{repos: repos, logger: logger}
}

// HandleListRepos returns up to 20 of the user's repositories, most recently
// updated first.
//
// HTTP: GET /api/github/repos
// Auth: Required
func (h *GitHubHandler) HandleListRepos(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	repos, err := h.repos.ListRepositories(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list repositories failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, repos)
}

// HandleAnalyze fetches a repository's file tree and generates a README for it.
//
// HTTP: POST /api/github/analyze
// Auth: Required
// Body: {"repoFullName": "owner/name"}
//
// Response: 200 {"readme": "...", "repoFullName": "owner/name"}
func (h *GitHubHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.repos.Analyze(r.Context(), user.ID, req.RepoFullName)
	if err != nil {
		h.logger.Error("analyze failed",
			slog.String("userID", user.ID),
			slog.String("repo", req.RepoFullName),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
