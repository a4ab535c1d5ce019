package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

func Load() (*Config, error) {
	overlay, err := loadOverlay()
	if err != nil {
		return nil, err
	}

	storePath := envOr("DAYBOOK_DB", overlay.StorePath)
	if storePath == "" {
		storePath = "daybook.db"
	}

	timezone := os.Getenv("TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	return &Config{
		StorePath: storePath,
		Timezone:  timezone,
		Editor:    loadEditorConfig(overlay),
		LLM:       loadLLMConfig(overlay),
		Embedder:  loadEmbedderConfig(overlay),
		Retrieval: loadRetrievalConfig(),
		Chat:      loadChatConfig(),
		Backfill:  loadBackfillConfig(overlay),
	}, nil
}

func loadEditorConfig(overlay *overlayConfig) EditorConfig {
	debounceMs := envInt("DAYBOOK_DEBOUNCE_MS", overlay.DebounceMs)
	if debounceMs <= 0 {
		debounceMs = 250
	}

	empty := envOr("DAYBOOK_EMPTY_CONTENT", overlay.EmptyContent)
	if empty == "" {
		empty = "<p></p>"
	}

	return EditorConfig{
		Debounce:     time.Duration(debounceMs) * time.Millisecond,
		EmptyContent: empty,
	}
}

func loadLLMConfig(overlay *overlayConfig) LLMConfig {
	provider := envOr("DAYBOOK_LLM_PROVIDER", overlay.LLMProvider)
	if provider == "" {
		provider = "openai"
	}

	apiKey := providerKey(provider)

	model := envOr("DAYBOOK_LLM_MODEL", overlay.LLMModel)

	maxTokens := envInt("DAYBOOK_LLM_MAX_TOKENS", 0)
	if maxTokens <= 0 {
		maxTokens = 500
	}

	// ollama runs locally and needs no credential
	enabled := apiKey != "" || provider == "ollama"

	return LLMConfig{
		Provider:  provider,
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   os.Getenv("DAYBOOK_LLM_BASE_URL"),
		MaxTokens: maxTokens,
		Enabled:   enabled,
	}
}

func loadEmbedderConfig(overlay *overlayConfig) EmbedderConfig {
	provider := envOr("DAYBOOK_EMBEDDER_PROVIDER", overlay.EmbedderProvider)
	if provider == "" {
		provider = "openai"
	}

	apiKey := providerKey(provider)

	enabled := apiKey != "" || provider == "ollama"

	return EmbedderConfig{
		Provider: provider,
		APIKey:   apiKey,
		BaseURL:  os.Getenv("DAYBOOK_EMBEDDER_BASE_URL"),
		Model:    envOr("DAYBOOK_EMBEDDER_MODEL", overlay.EmbedderModel),
		Enabled:  enabled,
	}
}

// providerKey resolves the single credential gating a provider. OpenAI and
// Claude each read their conventional env var; everything else is keyless.
func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func loadRetrievalConfig() RetrievalConfig {
	limit := envInt("DAYBOOK_RETRIEVAL_LIMIT", 0)
	if limit <= 0 {
		limit = 5
	}

	snippetLen := envInt("DAYBOOK_SNIPPET_LEN", 0)
	if snippetLen <= 0 {
		snippetLen = 200
	}

	return RetrievalConfig{Limit: limit, SnippetLen: snippetLen}
}

func loadChatConfig() ChatConfig {
	historySize := envInt("DAYBOOK_CHAT_HISTORY", 0)
	if historySize <= 0 {
		historySize = 12
	}

	return ChatConfig{HistorySize: historySize}
}

func loadBackfillConfig(overlay *overlayConfig) BackfillConfig {
	schedule := envOr("DAYBOOK_BACKFILL_SCHEDULE", overlay.BackfillSchedule)
	if schedule == "" {
		schedule = "0 3 * * *"
	}

	return BackfillConfig{Schedule: schedule}
}

// overlayConfig is the optional YAML file surface. Env vars always win over
// file values; file values win over built-in defaults.
type overlayConfig struct {
	StorePath        string `yaml:"db"`
	DebounceMs       int    `yaml:"debounce_ms"`
	EmptyContent     string `yaml:"empty_content"`
	LLMProvider      string `yaml:"llm_provider"`
	LLMModel         string `yaml:"llm_model"`
	EmbedderProvider string `yaml:"embedder_provider"`
	EmbedderModel    string `yaml:"embedder_model"`
	BackfillSchedule string `yaml:"backfill_schedule"`
}

func loadOverlay() (*overlayConfig, error) {
	overlay := &overlayConfig{}

	path := os.Getenv("DAYBOOK_CONFIG")
	if path == "" {
		path = "daybook.yml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return overlay, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, overlay); err != nil {
		return nil, err
	}

	return overlay, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
