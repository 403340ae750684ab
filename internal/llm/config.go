// Package llm provides the upstream chat-completion clients used to draft cover letters.
package llm

import (
	"strings"

	"github.com/jonathan/cover-letter/internal/config"
)

// Provider represents an upstream completion provider.
type Provider string

// Provider constants define supported upstream providers.
const (
	// ProviderOpenRouter speaks the OpenAI-compatible chat completions API.
	ProviderOpenRouter Provider = "openrouter"
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini Provider = "gemini"
)

// Config holds the connection settings for one upstream provider.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
	// Headers are sent with every request (OpenRouter uses them for attribution).
	Headers map[string]string
}

// placeholderKeys are sample values shipped in example env files.
var placeholderKeys = map[string]bool{
	"your_openrouter_api_key_here": true,
	"your_api_key_here":            true,
	"changeme":                     true,
}

// IsPlaceholderKey reports whether key is a sample value rather than a real credential.
func IsPlaceholderKey(key string) bool {
	return placeholderKeys[strings.ToLower(strings.TrimSpace(key))]
}

// HasCredential reports whether the config carries a usable API key.
func (c *Config) HasCredential() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != "" && !IsPlaceholderKey(c.APIKey)
}

// FromUpstream builds a Config from the service configuration.
func FromUpstream(u config.UpstreamConfig) *Config {
	cfg := &Config{
		Provider: Provider(u.Provider),
		APIKey:   u.APIKey(),
		Model:    u.Model(),
	}
	if cfg.Provider == ProviderOpenRouter {
		cfg.BaseURL = u.OpenRouterBaseURL
		cfg.Headers = map[string]string{
			"HTTP-Referer": u.AppURL,
			"X-Title":      u.AppTitle,
		}
	}
	return cfg
}
