package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/categorize.txt
	categorizePrompt string
	//go:embed prompts/qa.txt
	qaPrompt string
)

const systemPrompt = "You respond with a single JSON object and nothing else."

// CategorizePrompt builds the auto-categorization prompt for a document.
func CategorizePrompt(documentText string) GenerateInput {
	prompt := strings.ReplaceAll(categorizePrompt, "{{documentText}}", documentText)
	return GenerateInput{System: systemPrompt, Prompt: prompt}
}

// QAPrompt builds the single-document question-answering prompt.
func QAPrompt(documentText, question string) GenerateInput {
	prompt := strings.ReplaceAll(qaPrompt, "{{documentText}}", documentText)
	prompt = strings.ReplaceAll(prompt, "{{question}}", question)
	return GenerateInput{System: systemPrompt, Prompt: prompt}
}
