// LLM-backed translation through github.com/mozilla-ai/any-llm-go, a unified
// multi-provider chat-completion interface. API keys come from the provider's
// usual environment variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, GROQ_API_KEY);
// ollama needs none.
package translator

import (
	"context"
	"fmt"
	"strings"

	anyllm "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
)

const systemPromptFmt = "You are an expert translator. Translate the given %s text to %s accurately and concisely. Output only the %s translation. Do not add any pleasantries or extra explanations."

type LLM struct {
	backend anyllm.Provider
	name    string
	model   string
	source  string // language name, e.g. "Japanese"
	target  string // language name, e.g. "English"
}

// NewLLM builds a translator on the named provider ("openai", "anthropic",
// "groq", "ollama") translating source-language text into target.
func NewLLM(provider, model, source, target string) (*LLM, error) {
	if model == "" {
		return nil, fmt.Errorf("translator: model must not be empty")
	}
	backend, err := createBackend(provider)
	if err != nil {
		return nil, err
	}
	return &LLM{
		backend: backend,
		name:    provider,
		model:   model,
		source:  source,
		target:  target,
	}, nil
}

func createBackend(provider string) (anyllm.Provider, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return anyllmoai.New()
	case "anthropic":
		return anthropic.New()
	case "groq":
		return groq.New()
	case "ollama":
		return ollama.New()
	default:
		return nil, fmt.Errorf("translator: unsupported provider %q; supported: openai, anthropic, groq, ollama", provider)
	}
}

func (t *LLM) Name() string { return t.name }

func (t *LLM) Translate(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following %s text to %s. Output only the %s translation. Do not translate %s, keep as is.:\n%s",
		t.source, t.target, t.target, t.target, text,
	)

	resp, err := t.backend.Completion(ctx, anyllm.CompletionParams{
		Model: t.model,
		Messages: []anyllm.Message{
			{Role: anyllm.RoleSystem, Content: fmt.Sprintf(systemPromptFmt, t.source, t.target, t.target)},
			{Role: anyllm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("translator: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translator: empty choices in response")
	}

	return cleanOutput(resp.Choices[0].Message.ContentString()), nil
}

// cleanOutput strips chat-template artifacts some local models leak into
// their completions.
func cleanOutput(s string) string {
	s = strings.ReplaceAll(s, "<|im_start|>", "")
	s = strings.ReplaceAll(s, "<|im_end|>", "")
	return strings.TrimSpace(s)
}
