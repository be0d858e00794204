// Package config provides configuration management for the ledger service.
// It loads configuration from environment variables and .env files, plus an
// optional YAML file for reconciliation matcher settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Environment info
	Environment string

	// SQLite configuration
	SQLitePath string

	// Logging configuration
	LogLevel string

	// Reconciliation matcher settings, loaded from an optional YAML file
	Matcher MatcherConfig
}

// MatcherConfig tunes the bank reconciliation auto matcher
type MatcherConfig struct {
	// FuzzyWindowDays is how far apart a statement line and a ledger
	// transaction may be dated and still fuzzy-match on amount.
	FuzzyWindowDays int `yaml:"fuzzyWindowDays"`
}

// LoadFromEnv loads the configuration from environment variables. A .env
// file in the working directory is applied first when present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "./data/ledger.db"
	}

	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}

	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Matcher = MatcherConfig{FuzzyWindowDays: 3}
	if v := os.Getenv("MATCHER_FUZZY_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MATCHER_FUZZY_WINDOW_DAYS: %w", err)
		}
		cfg.Matcher.FuzzyWindowDays = days
	}

	if path := os.Getenv("MATCHER_CONFIG_PATH"); path != "" {
		if err := cfg.loadMatcherFile(path); err != nil {
			return nil, err
		}
	}

	if cfg.Matcher.FuzzyWindowDays < 0 {
		return nil, errors.New("matcher fuzzy window must not be negative")
	}
	return cfg, nil
}

// loadMatcherFile overlays matcher settings from a YAML file
func (c *Config) loadMatcherFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read matcher config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.Matcher); err != nil {
		return fmt.Errorf("failed to parse matcher config: %w", err)
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
