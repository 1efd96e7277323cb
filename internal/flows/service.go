package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docvault-backend/internal/documents"
	"docvault-backend/internal/llm"
	"docvault-backend/internal/shared/telemetry"
)

// User-facing failure messages. The underlying cause is logged, never returned.
var (
	ErrCategorization = errors.New("failed to categorize document with AI")
	ErrQA             = errors.New("failed to get an answer from the document")
)

type CategorizeResult struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type QAResult struct {
	Answer string `json:"answer"`
}

// Service runs the model-backed flows against the configured llm.Client.
type Service struct {
	LLM llm.Client
}

func NewService(client llm.Client) *Service {
	return &Service{LLM: client}
}

// Categorize classifies document text into one of the known categories.
// Empty input fails before any model call; an out-of-schema reply is an
// error, never coerced into a category.
func (s *Service) Categorize(ctx context.Context, documentText string) (CategorizeResult, error) {
	if strings.TrimSpace(documentText) == "" {
		return CategorizeResult{}, fmt.Errorf("%w: document text is empty", ErrCategorization)
	}
	raw, err := s.LLM.Generate(ctx, llm.CategorizePrompt(documentText))
	if err != nil {
		telemetry.Error("flows.categorize_failed", map[string]any{"error": err.Error()})
		return CategorizeResult{}, ErrCategorization
	}
	result, err := parseCategorizeResult(raw)
	if err != nil {
		telemetry.Error("flows.categorize_invalid_output", map[string]any{"error": err.Error(), "raw": string(raw)})
		return CategorizeResult{}, ErrCategorization
	}
	return result, nil
}

func parseCategorizeResult(raw json.RawMessage) (CategorizeResult, error) {
	var result CategorizeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return CategorizeResult{}, fmt.Errorf("parse categorize output: %w", err)
	}
	if !documents.ValidCategory(result.Category) {
		return CategorizeResult{}, fmt.Errorf("model returned unknown category %q", result.Category)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return CategorizeResult{}, fmt.Errorf("model returned confidence %v outside [0,1]", result.Confidence)
	}
	return result, nil
}

// Answer responds to a question using only the given document text.
func (s *Service) Answer(ctx context.Context, documentText, question string) (QAResult, error) {
	if strings.TrimSpace(documentText) == "" {
		return QAResult{}, fmt.Errorf("%w: document text is empty", ErrQA)
	}
	if strings.TrimSpace(question) == "" {
		return QAResult{}, fmt.Errorf("%w: question is empty", ErrQA)
	}
	raw, err := s.LLM.Generate(ctx, llm.QAPrompt(documentText, question))
	if err != nil {
		telemetry.Error("flows.qa_failed", map[string]any{"error": err.Error()})
		return QAResult{}, ErrQA
	}
	var result QAResult
	if err := json.Unmarshal(raw, &result); err != nil {
		telemetry.Error("flows.qa_invalid_output", map[string]any{"error": err.Error(), "raw": string(raw)})
		return QAResult{}, ErrQA
	}
	if strings.TrimSpace(result.Answer) == "" {
		telemetry.Error("flows.qa_invalid_output", map[string]any{"error": "empty answer", "raw": string(raw)})
		return QAResult{}, ErrQA
	}
	return result, nil
}

// Categorizer adapts the service to the documents upload pipeline.
type Categorizer struct {
	Svc *Service
}

func (a Categorizer) Categorize(ctx context.Context, documentText string) (string, float64, error) {
	result, err := a.Svc.Categorize(ctx, documentText)
	if err != nil {
		return "", 0, err
	}
	return result.Category, result.Confidence, nil
}

var _ documents.Categorizer = Categorizer{}
