package llm

import "fmt"

const defaultMaxTokens = 500

// New builds the configured chat provider.
func New(cfg Config) (LLM, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	switch cfg.Provider {
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}

		return newClaude(cfg.APIKey, model, maxTokens), nil
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}

		model := cfg.Model
		if model == "" {
			model = "gpt-3.5-turbo"
		}

		return newOpenAICompatible(cfg.APIKey, baseURL, model, maxTokens), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}

		// Ollama's OpenAI-compatible endpoint
		return newOpenAICompatible("ollama", baseURL+"/v1", cfg.Model, maxTokens), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
