package llm

import (
	"fmt"
	"strings"
)

// ResolverConfig carries the credentials and endpoints Resolve may need.
type ResolverConfig struct {
	GeminiAPIKey string
	OpenAIAPIKey string
	BaseURL      string // OpenAI-compatible endpoints (Ollama, proxies)
}

// Resolve parses a "provider:model" spec and returns a Client.
//
//	gemini:gemini-2.0-flash   → Gemini (requires GeminiAPIKey)
//	ollama:llama3.1:8b        → local Ollama, no credential
//	openai:gpt-4o             → OpenAI (requires OpenAIAPIKey)
//
// A bare provider name selects that provider's default model.
func Resolve(spec string, cfg ResolverConfig) (Client, string, error) {
	provider := spec
	model := ""
	if i := strings.Index(spec, ":"); i >= 0 {
		provider, model = spec[:i], spec[i+1:]
	}

	switch provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, "", fmt.Errorf("gemini provider requires an API key (set GEMINI_API_KEY)")
		}
		if model == "" {
			model = DefaultGeminiModel
		}
		return NewGeminiClient(cfg.GeminiAPIKey, model), model, nil

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		if model == "" {
			return nil, "", fmt.Errorf("ollama provider requires a model (e.g. ollama:llama3.1:8b)")
		}
		return NewOpenAIClient(baseURL, "ollama", model), model, nil

	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, "", fmt.Errorf("openai provider requires an API key (set OPENAI_API_KEY)")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIClient(baseURL, cfg.OpenAIAPIKey, model), model, nil

	default:
		return nil, "", fmt.Errorf("unknown provider: %q", provider)
	}
}
