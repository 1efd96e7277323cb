package flows

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"docvault-backend/internal/llm"
)

type fakeLLM struct {
	calls int
	raw   json.RawMessage
	err   error
}

func (f *fakeLLM) Generate(_ context.Context, _ llm.GenerateInput) (json.RawMessage, error) {
	f.calls++
	return f.raw, f.err
}

func TestCategorizeEmptyTextSkipsModel(t *testing.T) {
	fake := &fakeLLM{raw: json.RawMessage(`{"category":"Legal","confidence":0.9}`)}
	svc := NewService(fake)

	_, err := svc.Categorize(context.Background(), "   ")
	if !errors.Is(err, ErrCategorization) {
		t.Fatalf("expected ErrCategorization, got %v", err)
	}
	if fake.calls != 0 {
		t.Fatalf("expected no model call for empty text, got %d", fake.calls)
	}
}

func TestCategorizeValidOutput(t *testing.T) {
	fake := &fakeLLM{raw: json.RawMessage(`{"category":"Financial","confidence":0.82}`)}
	svc := NewService(fake)

	result, err := svc.Categorize(context.Background(), "invoice for services rendered")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Category != "Financial" || result.Confidence != 0.82 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCategorizeRejectsUnknownCategory(t *testing.T) {
	fake := &fakeLLM{raw: json.RawMessage(`{"category":"Taxes","confidence":0.95}`)}
	svc := NewService(fake)

	if _, err := svc.Categorize(context.Background(), "form 1040"); !errors.Is(err, ErrCategorization) {
		t.Fatalf("expected ErrCategorization for unknown category, got %v", err)
	}
}

func TestCategorizeRejectsConfidenceOutOfRange(t *testing.T) {
	fake := &fakeLLM{raw: json.RawMessage(`{"category":"Medical","confidence":1.5}`)}
	svc := NewService(fake)

	if _, err := svc.Categorize(context.Background(), "lab results"); !errors.Is(err, ErrCategorization) {
		t.Fatalf("expected ErrCategorization for out-of-range confidence, got %v", err)
	}
}

func TestCategorizeModelFailureCollapsesToGenericError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused to upstream host 10.0.0.4")}
	svc := NewService(fake)

	_, err := svc.Categorize(context.Background(), "some text")
	if !errors.Is(err, ErrCategorization) {
		t.Fatalf("expected ErrCategorization, got %v", err)
	}
	if err.Error() != ErrCategorization.Error() {
		t.Fatalf("internal error leaked to caller: %q", err.Error())
	}
}

func TestAnswerEmptyInputsSkipModel(t *testing.T) {
	fake := &fakeLLM{raw: json.RawMessage(`{"answer":"yes"}`)}
	svc := NewService(fake)

	if _, err := svc.Answer(context.Background(), "", "what?"); !errors.Is(err, ErrQA) {
		t.Fatalf("expected ErrQA for empty document, got %v", err)
	}
	if _, err := svc.Answer(context.Background(), "doc text", "  "); !errors.Is(err, ErrQA) {
		t.Fatalf("expected ErrQA for empty question, got %v", err)
	}
	if fake.calls != 0 {
		t.Fatalf("expected no model call, got %d", fake.calls)
	}
}

func TestAnswerValidOutput(t *testing.T) {
	fake := &fakeLLM{raw: json.RawMessage(`{"answer":"The rent is $1200 per month."}`)}
	svc := NewService(fake)

	result, err := svc.Answer(context.Background(), "rent: $1200/month", "how much is rent?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "The rent is $1200 per month." {
		t.Fatalf("unexpected answer %q", result.Answer)
	}
}

func TestAnswerEmptyAnswerIsError(t *testing.T) {
	fake := &fakeLLM{raw: json.RawMessage(`{"answer":""}`)}
	svc := NewService(fake)

	if _, err := svc.Answer(context.Background(), "doc", "q"); !errors.Is(err, ErrQA) {
		t.Fatalf("expected ErrQA for empty answer, got %v", err)
	}
}
