// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Upstream providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Identity backends.
const (
	IdentityNone     = "none"
	IdentitySupabase = "supabase"
	IdentityLocal    = "local"
)

// Config groups every section the service reads at startup.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Identity IdentityConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port         int           `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	SitePassword string        `envconfig:"SITE_PASSWORD"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"true"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
}

// UpstreamConfig describes the chat-completion service used to draft letters.
type UpstreamConfig struct {
	Provider          string        `envconfig:"AI_PROVIDER" default:"openrouter"`
	OpenRouterAPIKey  string        `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1/"`
	OpenRouterModel   string        `envconfig:"OPENROUTER_MODEL" default:"mistralai/mistral-7b-instruct"`
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel       string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	Timeout           time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
	Temperature       float64       `envconfig:"UPSTREAM_TEMPERATURE" default:"0.7"`
	MaxTokens         int64         `envconfig:"UPSTREAM_MAX_TOKENS" default:"1024"`
	AppURL            string        `envconfig:"APP_URL" default:"https://cover.me"`
	AppTitle          string        `envconfig:"APP_TITLE" default:"cover.me - AI Cover Letter Generator"`
}

// APIKey returns the credential for the selected provider.
func (c UpstreamConfig) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenRouterAPIKey
}

// Model returns the model identifier for the selected provider.
func (c UpstreamConfig) Model() string {
	if c.Provider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OpenRouterModel
}

// IdentityConfig selects and configures the identity backend.
// The VITE_ prefixed variables are accepted as fallbacks for older deployments.
type IdentityConfig struct {
	Provider            string `envconfig:"IDENTITY_PROVIDER" default:"supabase"`
	SupabaseURL         string `envconfig:"PUBLIC_SUPABASE_URL"`
	SupabaseURLAlt      string `envconfig:"VITE_PUBLIC_SUPABASE_URL"`
	SupabaseAnonKey     string `envconfig:"PUBLIC_SUPABASE_ANON_KEY"`
	SupabaseAnonKeyAlt  string `envconfig:"VITE_PUBLIC_SUPABASE_ANON_KEY"`
	SupabaseJWTSecret   string `envconfig:"SUPABASE_JWT_SECRET"`
	SessionCookieName   string `envconfig:"SESSION_COOKIE_NAME" default:"session"`
	PasswordRedirectURL string `envconfig:"PASSWORD_REDIRECT_URL"`
}

// Configured reports whether the selected backend has everything it needs.
func (c IdentityConfig) Configured() bool {
	switch c.Provider {
	case IdentitySupabase:
		return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
	case IdentityLocal:
		return true
	default:
		return false
	}
}

// DatabaseConfig holds the Postgres connection string. Empty means no database.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL"`
}

// Load reads every section from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	sections := []struct {
		name   string
		target interface{}
	}{
		{"server", &cfg.Server},
		{"upstream", &cfg.Upstream},
		{"identity", &cfg.Identity},
		{"database", &cfg.Database},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}

	if err := cfg.Server.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Upstream.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Identity.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ServerConfig) normalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	return nil
}

func (c *UpstreamConfig) normalize() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider != ProviderOpenRouter && c.Provider != ProviderGemini {
		return fmt.Errorf("AI_PROVIDER must be %q or %q, got: %q", ProviderOpenRouter, ProviderGemini, c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got: %s", c.Timeout)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("UPSTREAM_TEMPERATURE must be between 0 and 2, got: %v", c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("UPSTREAM_MAX_TOKENS must be at least 1, got: %d", c.MaxTokens)
	}
	c.OpenRouterAPIKey = strings.TrimSpace(c.OpenRouterAPIKey)
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	if c.OpenRouterBaseURL != "" && !strings.HasSuffix(c.OpenRouterBaseURL, "/") {
		c.OpenRouterBaseURL += "/"
	}
	return nil
}

func (c *IdentityConfig) normalize() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case IdentityNone, IdentitySupabase, IdentityLocal:
	default:
		return fmt.Errorf("IDENTITY_PROVIDER must be one of none, supabase, local; got: %q", c.Provider)
	}
	if c.SupabaseURL == "" {
		c.SupabaseURL = c.SupabaseURLAlt
	}
	if c.SupabaseAnonKey == "" {
		c.SupabaseAnonKey = c.SupabaseAnonKeyAlt
	}
	c.SupabaseURL = strings.TrimRight(c.SupabaseURL, "/")
	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}
	return nil
}
