package embedder

import (
	"errors"
	"fmt"

	"github.com/bowerhall/daybook/pkg/daymem"
)

// New builds the configured embedding provider. Returns nil (no error) when
// no provider is configured; callers treat that as "semantic features off".
func New(cfg Config) (daymem.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, &ProviderError{Provider: "openai", Err: errors.New("missing API key")}
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}

		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}

		return newOpenAI(cfg.APIKey, baseURL, model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}

		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}

		return newOllama(baseURL, model), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", cfg.Provider)
	}
}
