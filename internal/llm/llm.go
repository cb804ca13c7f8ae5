package llm

import (
	"context"
	"errors"
	"strings"
)

// Client abstracts the text generation provider used by analyses and the
// Store Doctor text evaluator.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a single-turn generation call.
type Request struct {
	System          string
	Prompt          string
	JSON            bool
	Temperature     *float64
	MaxOutputTokens int

	// Purpose labels the call in logs, e.g. "summary" or "store-text".
	Purpose string
}

// Response carries the generated text and token usage when reported.
type Response struct {
	Text        string
	Model       string
	TotalTokens int
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is used when no provider credentials are present.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, req Request) (Response, error) {
	_ = ctx
	_ = req
	return Response{}, ErrNotConfigured
}

// StripCodeFence removes a surrounding ```json fence that models sometimes add
// even in JSON response mode.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 {
	return &v
}
