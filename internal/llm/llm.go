package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts model providers for structured generation. Implementations
// return the raw JSON object produced by the model; callers validate shape.
type Client interface {
	Generate(ctx context.Context, input GenerateInput) (json.RawMessage, error)
}

// GenerateInput carries a single system + user prompt pair.
type GenerateInput struct {
	System string
	Prompt string
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, input GenerateInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
