// Package llm wraps the hosted language models used for extraction,
// classification and safety guidance.
package llm

import (
	"context"
	"errors"
	"fmt"

	"cybershield/backend/internal/config"
)

// ErrDisabled is returned by the provider used when no model is configured.
var ErrDisabled = errors.New("llm: no provider configured")

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Provider generates a completion for a single prompt.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// New picks the provider named by cfg.LLMProvider. A provider without an API
// key degrades to Disabled so the service still runs on keyword heuristics.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return Disabled{}, nil
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return Disabled{}, nil
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "none", "":
		return Disabled{}, nil
	}
	return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLMProvider)
}

// Disabled always fails with ErrDisabled.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) { return "", ErrDisabled }
func (Disabled) Name() string                                      { return "none" }
