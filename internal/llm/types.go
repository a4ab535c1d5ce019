package llm

import (
	"context"
	"fmt"
)

type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

type Message struct {
	Role    string
	Content string
}

// LLM is the chat-completion provider contract: an ordered list of
// role-tagged messages under a system prompt, one assistant reply back.
type LLM interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// ProviderError wraps chat-provider failures (network, auth, empty reply).
// Recoverable and retryable from the caller's point of view; never corrupts
// stored chat history.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("chat provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
