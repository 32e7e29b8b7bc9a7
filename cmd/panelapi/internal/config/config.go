package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "PANEL"

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN). "memory" keeps everything in process.
	DatabaseURL string

	// Server bind address (host:port)
	ServerAddr string

	// Maximum database connection pool size
	MaxDBConnections int

	// Enable debug logging
	Debug bool

	// Load the embedded dataset into empty collections on start
	Seed bool

	Auth AuthConfig
}

// AuthConfig controls token authentication and the role gate.
type AuthConfig struct {
	// Enabled turns on bearer token checks and role authorization for resource routes.
	Enabled bool

	// TokenSecret signs HS256 tokens. Must be at least 16 bytes.
	TokenSecret string

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	// EphemeralSecret is set when TokenSecret was generated because none was configured.
	// Tokens then stop verifying after a restart.
	EphemeralSecret bool
}

// IsMemory reports whether the in-process store was selected.
func (c *Config) IsMemory() bool {
	return c.DatabaseURL == "" || c.DatabaseURL == "memory"
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("database_url", "memory")
	viper.SetDefault("server_addr", "localhost:8080")
	viper.SetDefault("max_db_connections", 25)
	viper.SetDefault("debug", false)
	viper.SetDefault("seed", true)
	viper.SetDefault("auth.enabled", true)
	viper.SetDefault("auth.token_secret", "")
	viper.SetDefault("auth.token_ttl", "24h")
}

// Load reads configuration from viper: flags, PANEL_ environment variables,
// an optional config file and defaults, in that order of precedence.
func Load() (*Config, error) {
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:      viper.GetString("database_url"),
		ServerAddr:       viper.GetString("server_addr"),
		MaxDBConnections: viper.GetInt("max_db_connections"),
		Debug:            viper.GetBool("debug"),
		Seed:             viper.GetBool("seed"),
		Auth: AuthConfig{
			Enabled:     viper.GetBool("auth.enabled"),
			TokenSecret: viper.GetString("auth.token_secret"),
			TokenTTL:    viper.GetDuration("auth.token_ttl"),
		},
	}

	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("server_addr is required")
	}
	if cfg.MaxDBConnections < 1 {
		return nil, fmt.Errorf("max_db_connections must be at least 1, got %d", cfg.MaxDBConnections)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("auth.token_ttl must be a positive duration")
	}

	if cfg.Auth.TokenSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.TokenSecret = secret
		cfg.Auth.EphemeralSecret = true
	}
	if len(cfg.Auth.TokenSecret) < 16 {
		return nil, fmt.Errorf("auth.token_secret must be at least 16 bytes")
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
