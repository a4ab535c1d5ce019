package config

import "time"

type Config struct {
	StorePath string
	Timezone  string
	Editor    EditorConfig
	LLM       LLMConfig
	Embedder  EmbedderConfig
	Retrieval RetrievalConfig
	Chat      ChatConfig
	Backfill  BackfillConfig
}

// EditorConfig holds the autosave policy knobs. EmptyContent is the canonical
// "nothing written yet" document the editor produces; saves of exactly this
// value are skipped so a note the user never wrote is never persisted.
type EditorConfig struct {
	Debounce     time.Duration
	EmptyContent string
}

type LLMConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Enabled   bool
}

type EmbedderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Enabled  bool
}

type RetrievalConfig struct {
	Limit      int
	SnippetLen int
}

type ChatConfig struct {
	HistorySize int
}

type BackfillConfig struct {
	Schedule string
}

// AssistantConfigured reports whether the chat assistant can run at all.
// Callers check this instead of attempting a provider call and failing.
func (c *Config) AssistantConfigured() bool {
	return c.LLM.Enabled
}

// RetrievalConfigured reports whether semantic retrieval can run.
func (c *Config) RetrievalConfigured() bool {
	return c.Embedder.Enabled
}
