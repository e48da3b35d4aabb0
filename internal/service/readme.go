package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/llm"
)

// Completion parameters for README generation.
const (
	GenerateMaxTokens   = 2000
	GenerateTemperature = 0.7
)

// ReadmeService turns a repository's file tree into a README and rewrites a
// README on request, through a completion backend.
//
// It keeps no state between calls: two concurrent generations for the same
// repository both run to completion, and the client keeps whichever it wants.
type ReadmeService struct {
	completer llm.Completer
	logger    *slog.Logger
}

// NewReadmeService creates a ReadmeService backed by completer.
func NewReadmeService(completer llm.Completer, logger *slog.Logger) *ReadmeService {
	return &ReadmeService{completer: completer, logger: logger}
}

// Generate writes a README for repoName from its file paths. The completion
// text is returned verbatim.
func (s *ReadmeService) Generate(ctx context.Context, fileTree []string, repoName string) (string, error) {
	system, user := GenerationPrompt(fileTree, repoName)

	text, err := s.completer.Complete(ctx, llm.Request{
		System:      system,
		User:        user,
		MaxTokens:   GenerateMaxTokens,
		Temperature: llm.Float(GenerateTemperature),
	})
	if err != nil {
		s.logger.Error("README generation failed",
			slog.String("repo", repoName),
			slog.String("error", err.Error()),
		)
		return "", completionError(err, apperror.GenerationFailed)
	}

	s.logger.Info("README generated",
		slog.String("repo", repoName),
		slog.Int("paths", len(fileTree)),
		slog.Int("length", len(text)),
	)
	return text, nil
}

// Refine applies userRequest to currentReadme. An empty request is allowed and
// still performs a completion. The sampling temperature is left to the backend.
func (s *ReadmeService) Refine(ctx context.Context, currentReadme, userRequest string) (string, error) {
	if strings.TrimSpace(currentReadme) == "" {
		return "", apperror.ValidationFailed("currentReadme", "Current README is required.")
	}

	system, user := RefinementPrompt(currentReadme, userRequest)

	text, err := s.completer.Complete(ctx, llm.Request{
		System: system,
		User:   user,
	})
	if err != nil {
		s.logger.Error("README refinement failed", slog.String("error", err.Error()))
		return "", completionError(err, apperror.RefinementFailed)
	}

	s.logger.Info("README refined", slog.Int("length", len(text)))
	return text, nil
}

// completionError maps backend sentinels onto the app taxonomy; anything else
// becomes the operation's generic failure built by fallback.
func completionError(err error, fallback func(error) *apperror.AppError) error {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return apperror.RateLimited(err)
	case errors.Is(err, llm.ErrInvalidCredentials):
		return apperror.InvalidCredentials(err)
	default:
		return fallback(err)
	}
}
