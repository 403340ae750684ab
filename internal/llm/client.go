package llm

import (
	"context"
	"fmt"
)

// Request is a single non-streaming chat completion.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int64
}

// Client is an abstraction over upstream providers.
type Client interface {
	// Complete returns the first choice's text. An empty string with a nil
	// error means the upstream answered without content.
	Complete(ctx context.Context, req Request) (string, error)
	// Model returns the model identifier requests are sent to.
	Model() string
	// Close releases any resources held by the client.
	Close() error
}

// NewClient creates a client for the configured provider.
// It returns ErrNoCredentials when the key is missing or a placeholder.
func NewClient(ctx context.Context, cfg *Config) (Client, error) {
	if !cfg.HasCredential() {
		return nil, ErrNoCredentials
	}

	switch cfg.Provider {
	case ProviderOpenRouter:
		return NewOpenRouterClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
