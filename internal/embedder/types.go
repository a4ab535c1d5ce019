package embedder

import "fmt"

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// ProviderError wraps any failure talking to the embedding provider:
// missing credential, empty input, network or auth trouble. Always non-fatal
// to the caller; the note save path never depends on it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
