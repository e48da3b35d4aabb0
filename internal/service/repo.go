package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/model"
)

// RepoFetcher is the slice of github.Client the service needs.
type RepoFetcher interface {
	ListRepositories(ctx context.Context, token string) ([]model.RepositorySummary, error)
	GetFileTree(ctx context.Context, token, fullName string) ([]string, error)
}

// TokenSource hands out a user's GitHub access token. AuthService implements it.
type TokenSource interface {
	ProviderToken(ctx context.Context, userID string) (string, error)
}

// Generator writes a README from a file tree. ReadmeService implements it.
type Generator interface {
	Generate(ctx context.Context, fileTree []string, repoName string) (string, error)
}

// RepoService lists a user's repositories and runs the analyze pipeline:
// file tree → README.
type RepoService struct {
	tokens    TokenSource
	github    RepoFetcher
	generator Generator
	logger    *slog.Logger
}

// NewRepoService wires a RepoService.
func NewRepoService(tokens TokenSource, github RepoFetcher, generator Generator, logger *slog.Logger) *RepoService {
	return &RepoService{
		tokens:    tokens,
		github:    github,
		generator: generator,
		logger:    logger,
	}
}

// ListRepositories returns the user's 20 most recently updated repositories.
func (s *RepoService) ListRepositories(ctx context.Context, userID string) ([]model.RepositorySummary, error) {
	token, err := s.tokens.ProviderToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.github.ListRepositories(ctx, token)
}

// Analyze fetches the file tree of repoFullName ("owner/name") and generates a
// README for it. The generator is given the name part only.
func (s *RepoService) Analyze(ctx context.Context, userID, repoFullName string) (*model.Document, error) {
	repoFullName = strings.TrimSpace(repoFullName)
	if repoFullName == "" {
		return nil, apperror.ValidationFailed("repoFullName", "Repository name is required.")
	}
	owner, name, ok := strings.Cut(repoFullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, apperror.ValidationFailed("repoFullName", "Repository name must be in the form owner/name.")
	}

	token, err := s.tokens.ProviderToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	tree, err := s.github.GetFileTree(ctx, token, repoFullName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("analyzing repository",
		slog.String("repo", repoFullName),
		slog.Int("paths", len(tree)),
	)

	readme, err := s.generator.Generate(ctx, tree, name)
	if err != nil {
		return nil, err
	}

	return &model.Document{Readme: readme, RepoFullName: repoFullName}, nil
}
