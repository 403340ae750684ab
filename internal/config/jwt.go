package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// JWTConfig holds configuration for session token signing and validation.
type JWTConfig struct {
	Secret          string `envconfig:"JWT_SECRET"`
	ExpirationHours int    `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`
	Issuer          string `envconfig:"JWT_ISSUER" default:"cover-letter"`
}

// NewJWTConfig reads JWT_SECRET (required), JWT_EXPIRATION_HOURS (default: 24)
// and JWT_ISSUER from the environment.
func NewJWTConfig() (*JWTConfig, error) {
	var cfg JWTConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid JWT config: %w", err)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
