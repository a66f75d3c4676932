// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted by PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all application configuration.
type Config struct {
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	DBPath          string
	TurnTimeout     time.Duration
	RetentionSweep  time.Duration
	InitialMode     string // "concat" or "ignore"
	Storage         StorageConfig
	Log             LogConfig
}

// StorageConfig selects the document object store. An empty bucket keeps
// documents in memory, which is only useful for development.
type StorageConfig struct {
	GCSBucket       string
	GCSPrefix       string
	CredentialsFile string
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Provider:        strings.ToLower(getEnv("PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		DBPath:          getEnv("DB_PATH", "./data/ams.db"),
		TurnTimeout:     getEnvDuration("TURN_TIMEOUT", 55*time.Second),
		RetentionSweep:  getEnvDuration("RETENTION_SWEEP_INTERVAL", 24*time.Hour),
		InitialMode:     strings.ToLower(getEnv("INITIAL_MODE", "concat")),
		Storage: StorageConfig{
			GCSBucket:       getEnv("GCS_BUCKET", ""),
			GCSPrefix:       getEnv("GCS_PREFIX", "documents"),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY cannot be empty when PROVIDER=openai")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY cannot be empty when PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("PROVIDER must be %q or %q", ProviderOpenAI, ProviderAnthropic)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("TURN_TIMEOUT must be > 0")
	}
	if c.InitialMode != "concat" && c.InitialMode != "ignore" {
		return fmt.Errorf("INITIAL_MODE must be \"concat\" or \"ignore\"")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
