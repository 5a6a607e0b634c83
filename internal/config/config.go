// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the daemon and the inspect tool.
type Config struct {
	DBPath        string        `env:"RESONANCE_DB_PATH" envDefault:"resonance.db"`
	Addr          string        `env:"RESONANCE_ADDR" envDefault:":50061"`
	LogLevel      string        `env:"RESONANCE_LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"RESONANCE_LOG_FORMAT" envDefault:"text"`
	RecalcTimeout time.Duration `env:"RESONANCE_RECALC_TIMEOUT" envDefault:"30s"`
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
