package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	xdgAppName = "labelagent"
	configFile = "config.json"
)

// Bearer attachment policies. The backend identifies players by provider uid
// in the path, so whether calls also carry an Authorization header is an
// explicit configuration point rather than an assumption.
const (
	BearerAlways = "always"
	BearerNever  = "never"
)

// Config is the client configuration.
// Priority: flag > environment > config file > default.
type Config struct {
	APIBaseURL   string        `json:"apiBaseUrl" env:"LABELAGENT_API_URL"`
	APIKey       string        `json:"apiKey" env:"LABELAGENT_API_KEY"`
	Label        string        `json:"label" env:"LABELAGENT_LABEL"`
	AttachBearer string        `json:"attachBearer" env:"LABELAGENT_ATTACH_BEARER"`
	PollInterval time.Duration `json:"-" env:"LABELAGENT_POLL_INTERVAL"`
	ClaimTimeout time.Duration `json:"-" env:"LABELAGENT_CLAIM_TIMEOUT"`
}

func defaults() *Config {
	return &Config{
		APIBaseURL:   "http://localhost:8080",
		AttachBearer: BearerAlways,
		PollInterval: time.Second,
		ClaimTimeout: 30 * time.Second,
	}
}

// Dir returns the client's config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file (missing file means defaults) and overlays any
// set environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	p, err := path()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.AttachBearer != BearerAlways && cfg.AttachBearer != BearerNever {
		return nil, fmt.Errorf("invalid attachBearer policy %q (want %q or %q)", cfg.AttachBearer, BearerAlways, BearerNever)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg *Config) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
