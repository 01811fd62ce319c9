// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment key.
const Prefix = "DUEL"

// Config holds every tunable the binary reads from the environment.
type Config struct {
	DB           string        `envconfig:"DB"`
	RedisURL     string        `envconfig:"REDIS_URL"`
	ProfileKey   string        `envconfig:"PROFILE_KEY" default:"player-profile"`
	SaveDebounce time.Duration `envconfig:"SAVE_DEBOUNCE" default:"2s"`

	AIProvider string        `envconfig:"AI_PROVIDER"` // openai, ollama or empty for offline only
	AIBaseURL  string        `envconfig:"AI_BASE_URL" default:"http://localhost:1234/v1"`
	AIAPIKey   string        `envconfig:"AI_API_KEY"`
	AIModel    string        `envconfig:"AI_MODEL"`
	AITimeout  time.Duration `envconfig:"AI_TIMEOUT" default:"4s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads an optional .env file and then the DUEL_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case "", "openai", "ollama":
	default:
		return fmt.Errorf("invalid DUEL_AI_PROVIDER %q (use openai, ollama or leave empty)", c.AIProvider)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("DUEL_AI_TIMEOUT must be positive, got %s", c.AITimeout)
	}
	if c.SaveDebounce < 0 {
		return fmt.Errorf("DUEL_SAVE_DEBOUNCE must not be negative, got %s", c.SaveDebounce)
	}
	return nil
}
