// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration. Every field has an environment
// default so the server runs out of the box against the emulators.
type Config struct {
	Environment       string `env:"APP_ENVIRONMENT" envDefault:"production"`
	Port              string `env:"PORT" envDefault:"8080"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	OpenAPISpecPath   string `env:"OPENAPI_SPEC_PATH" envDefault:"api/openapi.json"`

	Quota     Quota     `envPrefix:"QUOTA_"`
	Timezone  Timezone  `envPrefix:"TIMEZONE_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

// Quota tunes the daily message allowance.
type Quota struct {
	DailyMessageLimit int           `env:"DAILY_MESSAGE_LIMIT" envDefault:"3"`
	ResetCooldown     time.Duration `env:"RESET_COOLDOWN" envDefault:"18h"`
}

// Timezone tunes the timezone-change guard.
type Timezone struct {
	MinOffsetMinutes int           `env:"MIN_OFFSET_MINUTES" envDefault:"-720"`
	MaxOffsetMinutes int           `env:"MAX_OFFSET_MINUTES" envDefault:"840"`
	SuspiciousJump   time.Duration `env:"SUSPICIOUS_JUMP" envDefault:"12h"`
	ChangeCooldown   time.Duration `env:"CHANGE_COOLDOWN" envDefault:"18h"`
	MaxDailyChanges  int           `env:"MAX_DAILY_CHANGES" envDefault:"2"`
}

// RateLimit tunes the per-client request limiter.
type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(c *Config) error {
	if c.FirebaseProjectID == "" {
		if c.Environment != "development" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when APP_ENVIRONMENT is %q", c.Environment)
		}
		c.FirebaseProjectID = "demo-test-project"
	}
	if c.Quota.DailyMessageLimit < 1 {
		return fmt.Errorf("QUOTA_DAILY_MESSAGE_LIMIT must be at least 1, got %d", c.Quota.DailyMessageLimit)
	}
	if c.Timezone.MinOffsetMinutes > c.Timezone.MaxOffsetMinutes {
		return fmt.Errorf("TIMEZONE_MIN_OFFSET_MINUTES %d exceeds TIMEZONE_MAX_OFFSET_MINUTES %d",
			c.Timezone.MinOffsetMinutes, c.Timezone.MaxOffsetMinutes)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.RPS)
	}
	return nil
}
