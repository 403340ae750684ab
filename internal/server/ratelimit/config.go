package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// GenerateLetterPath is the endpoint guarded by the strictest limit.
const GenerateLetterPath = "/api/generate-letter"

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Fixed window length
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

type envSettings struct {
	Enabled         bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	DefaultLimit    int           `envconfig:"RATE_LIMIT_DEFAULT_LIMIT" default:"120"`
	DefaultWindow   time.Duration `envconfig:"RATE_LIMIT_DEFAULT_WINDOW" default:"1m"`
	GenerateLimit   int           `envconfig:"RATE_LIMIT_GENERATE_LIMIT" default:"10"`
	GenerateWindow  time.Duration `envconfig:"RATE_LIMIT_GENERATE_WINDOW" default:"1m"`
	CleanupInterval time.Duration `envconfig:"RATE_LIMIT_CLEANUP_INTERVAL" default:"5m"`
	Whitelist       []string      `envconfig:"RATE_LIMIT_WHITELIST"`
	Blacklist       []string      `envconfig:"RATE_LIMIT_BLACKLIST"`
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() (*Config, error) {
	var env envSettings
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load rate limit config: %w", err)
	}
	if !env.Enabled {
		return &Config{Enabled: false}, nil
	}
	if env.GenerateLimit < 1 || env.DefaultLimit < 1 {
		return nil, fmt.Errorf("rate limits must be at least 1 (generate=%d, default=%d)", env.GenerateLimit, env.DefaultLimit)
	}
	if env.GenerateWindow <= 0 || env.DefaultWindow <= 0 {
		return nil, fmt.Errorf("rate limit windows must be positive")
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.DefaultLimit,
		DefaultWindow:   env.DefaultWindow,
		CleanupInterval: env.CleanupInterval,
		Whitelist:       toSet(env.Whitelist),
		Blacklist:       toSet(env.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(env.GenerateLimit, env.GenerateWindow),
	}, nil
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
func DefaultEndpointConfigs(generateLimit int, generateWindow time.Duration) []EndpointConfig {
	return []EndpointConfig{
		// Upstream model calls
		{Path: GenerateLetterPath, Method: "POST", Limit: generateLimit, Window: generateWindow},
		// PDF parsing
		{Path: "/api/resume/extract", Method: "POST", Limit: 30, Window: time.Minute},
		// Credential forms
		{Path: "/auth/", Method: "POST", Limit: 20, Window: time.Minute},
		{Path: "/api/feedback", Method: "POST", Limit: 20, Window: time.Minute},
	}
}

func toSet(items []string) map[string]bool {
	result := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result[item] = true
		}
	}
	return result
}
