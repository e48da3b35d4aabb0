// Package llm talks to the chat-completion backends that write README text.
//
// Two backends implement Completer: Groq through its OpenAI-compatible REST
// API, and Gemini through the google.golang.org/genai SDK. Callers only see
// the Completer interface and the sentinel errors below.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited means the backend answered 429 or reported an exhausted quota.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrInvalidCredentials means the backend rejected the API key (401/403).
	ErrInvalidCredentials = errors.New("llm: invalid credentials")

	// ErrEmptyCompletion means the backend answered without any text.
	ErrEmptyCompletion = errors.New("llm: empty completion")
)

// Request is one system+user prompt pair.
type Request struct {
	System    string
	User      string
	MaxTokens int // 0 leaves the backend default

	// Temperature is optional; nil leaves the backend default.
	Temperature *float64
}

// Completer sends a prompt pair and returns the first choice's text verbatim.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 {
	return &v
}
