package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration

	// BaseURL overrides the Gemini API endpoint. Tests point it at httptest.
	BaseURL string
}

// GeminiClient implements Completer with the Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ Completer = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client for the Gemini Developer API.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &GeminiClient{client: client, model: cfg.Model, logger: logger}, nil
}

// Complete runs a single GenerateContent call with the system prompt passed as
// the system instruction.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.User), config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}

	c.logger.Debug("gemini completion finished",
		slog.String("model", c.model),
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("response_len", len(text)),
	)
	return text, nil
}

// classifyGeminiError maps SDK API errors onto the package sentinels.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("gemini: %s: %w", apiErr.Message, ErrRateLimited)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("gemini: %s: %w", apiErr.Message, ErrInvalidCredentials)
		}
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			return fmt.Errorf("gemini: %s: %w", apiErr.Message, ErrRateLimited)
		}
	}
	return fmt.Errorf("gemini: generate content: %w", err)
}
