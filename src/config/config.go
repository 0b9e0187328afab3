// Package config provides configuration management for the Weld integration engine.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	// ArbiterURL is the base URL of the reasoning engine API
	// (OpenAI-compatible, e.g. "https://api.openai.com/v1").
	ArbiterURL string

	// ArbiterAPIKey authenticates against the reasoning engine.
	ArbiterAPIKey string

	// ArbiterModel is the model the arbiter prompts.
	ArbiterModel string

	// RedpandaBrokers lists seed broker addresses for distributed mode.
	// Empty means local mode with the in-memory broker.
	RedpandaBrokers []string

	// PostgresDSN is the audit store connection string. Empty means the
	// in-memory store.
	PostgresDSN string
}

// LoadFromEnv loads configuration from environment variables.
// The arbiter settings are required; broker and store are optional and
// select between local and distributed mode.
func LoadFromEnv() (*Config, error) {
	url := os.Getenv("WELD_ARBITER_URL")
	if url == "" {
		return nil, fmt.Errorf("WELD_ARBITER_URL environment variable is required")
	}

	key := os.Getenv("WELD_ARBITER_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("WELD_ARBITER_API_KEY environment variable is required")
	}

	model := os.Getenv("WELD_ARBITER_MODEL")
	if model == "" {
		return nil, fmt.Errorf("WELD_ARBITER_MODEL environment variable is required")
	}

	cfg := &Config{
		ArbiterURL:    url,
		ArbiterAPIKey: key,
		ArbiterModel:  model,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
	}

	if brokers := os.Getenv("REDPANDA_BROKERS"); brokers != "" {
		for _, addr := range strings.Split(brokers, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.RedpandaBrokers = append(cfg.RedpandaBrokers, addr)
			}
		}
	}

	return cfg, nil
}

// Distributed reports whether the config selects the Redpanda-backed
// submission path.
func (c *Config) Distributed() bool {
	return len(c.RedpandaBrokers) > 0
}

// MustLoadFromEnv loads configuration from environment variables and panics on error.
// Useful in main() where configuration errors should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
