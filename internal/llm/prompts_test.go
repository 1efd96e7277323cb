package llm

import (
	"strings"
	"testing"
)

func TestCategorizePromptEmbedsDocument(t *testing.T) {
	in := CategorizePrompt("quarterly earnings report")
	if !strings.Contains(in.Prompt, "quarterly earnings report") {
		t.Fatalf("expected document text in prompt")
	}
	if strings.Contains(in.Prompt, "{{documentText}}") {
		t.Fatalf("placeholder not substituted")
	}
	for _, category := range []string{"Medical", "Legal", "Academic", "Financial", "Personal", "Other"} {
		if !strings.Contains(in.Prompt, category) {
			t.Fatalf("expected category %q in prompt", category)
		}
	}
}

func TestQAPromptEmbedsDocumentAndQuestion(t *testing.T) {
	in := QAPrompt("the net profit in 2023 was $1M", "What was the net profit in 2023?")
	if !strings.Contains(in.Prompt, "the net profit in 2023 was $1M") {
		t.Fatalf("expected document text in prompt")
	}
	if !strings.Contains(in.Prompt, "What was the net profit in 2023?") {
		t.Fatalf("expected question in prompt")
	}
	if strings.Contains(in.Prompt, "{{question}}") || strings.Contains(in.Prompt, "{{documentText}}") {
		t.Fatalf("placeholders not substituted")
	}
	if !strings.Contains(in.Prompt, "ONLY") {
		t.Fatalf("expected document-only instruction in prompt")
	}
}
