// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/fableroom/fableroom/internal/platform/errors"
)

// Config holds the runtime settings for the orchestration engine.
type Config struct {
	ListenAddr  string `env:"FABLEROOM_LISTEN_ADDR"  envDefault:":8080"`
	MetricsAddr string `env:"FABLEROOM_METRICS_ADDR" envDefault:":9090"`
	DBPath      string `env:"FABLEROOM_DB_PATH"      envDefault:"fableroom.db"`

	// Room defaults applied when create_room omits the bounds.
	DefaultMinPlayers int `env:"FABLEROOM_DEFAULT_MIN_PLAYERS" envDefault:"1"`
	DefaultMaxPlayers int `env:"FABLEROOM_DEFAULT_MAX_PLAYERS" envDefault:"6"`

	// Narration collaborator budget. On exhausted retries the engine applies
	// a degraded default response instead of leaving the turn open.
	NarrationTimeout time.Duration `env:"FABLEROOM_NARRATION_TIMEOUT" envDefault:"30s"`
	NarrationRetries int           `env:"FABLEROOM_NARRATION_RETRIES" envDefault:"2"`

	// AllowDeclaredOutcome permits the narration collaborator to end a match
	// by declaring a WON or LOST result. When false such declarations are
	// logged and ignored.
	AllowDeclaredOutcome bool `env:"FABLEROOM_ALLOW_DECLARED_OUTCOME" envDefault:"true"`

	// FailureDamage is the health cost applied to a player whose dice check
	// fails during a dice-mode turn.
	FailureDamage int `env:"FABLEROOM_FAILURE_DAMAGE" envDefault:"10"`

	OpenAIAPIKey  string `env:"FABLEROOM_OPENAI_API_KEY"`
	OpenAIModel   string `env:"FABLEROOM_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"FABLEROOM_OPENAI_BASE_URL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the engine configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the env tags cannot express.
func (c Config) Validate() error {
	if c.DefaultMinPlayers < 1 {
		return errors.New(errors.CodeConfigInvalid, fmt.Sprintf("default min players must be at least 1, got %d", c.DefaultMinPlayers))
	}
	if c.DefaultMaxPlayers < c.DefaultMinPlayers {
		return errors.New(errors.CodeConfigInvalid, fmt.Sprintf("default max players %d below min players %d", c.DefaultMaxPlayers, c.DefaultMinPlayers))
	}
	if c.NarrationTimeout <= 0 {
		return errors.New(errors.CodeConfigInvalid, fmt.Sprintf("narration timeout must be positive, got %s", c.NarrationTimeout))
	}
	if c.NarrationRetries < 0 {
		return errors.New(errors.CodeConfigInvalid, fmt.Sprintf("narration retries must be non-negative, got %d", c.NarrationRetries))
	}
	if c.FailureDamage < 0 {
		return errors.New(errors.CodeConfigInvalid, fmt.Sprintf("failure damage must be non-negative, got %d", c.FailureDamage))
	}
	return nil
}
