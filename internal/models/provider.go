// Package models builds the language model backends used by the tutor.
package models

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderGrok       = "grok"
	ProviderOpenRouter = "openrouter"
)

const (
	grokBaseURL       = "https://api.x.ai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Keys carries the API keys for every supported provider.
type Keys struct {
	Google     string
	OpenAI     string
	XAI        string
	OpenRouter string
}

// NewLLM returns the adk model for provider. Gemini uses the native client;
// the others go through the OpenAI-compatible adapter.
func NewLLM(ctx context.Context, provider, modelName string, keys Keys) (model.LLM, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	switch provider {
	case "", ProviderGemini:
		if keys.Google == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for provider %q", ProviderGemini)
		}
		llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
			APIKey:  keys.Google,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return llm, nil
	case ProviderOpenAI:
		return NewOpenAIModel(modelName, keys.OpenAI, "")
	case ProviderGrok:
		return NewOpenAIModel(modelName, keys.XAI, grokBaseURL)
	case ProviderOpenRouter:
		return NewOpenAIModel(modelName, keys.OpenRouter, openRouterBaseURL)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
