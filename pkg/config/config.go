// Package config loads the service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Addr         string
	DatabasePath string

	// Passphrase is the shared access-gate secret exchanged for a session
	// token. It gates visibility of the whole API; it is not a per-user
	// credential.
	Passphrase string
	JWTSecret  string
	TokenTTL   time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; missing required values are.
func Load() (*Config, error) {
	// Best effort: real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         getEnv("LOANBOOK_ADDR", ":8080"),
		DatabasePath: getEnv("LOANBOOK_DB", "loanbook.db"),
		Passphrase:   os.Getenv("LOANBOOK_PASSPHRASE"),
		JWTSecret:    os.Getenv("LOANBOOK_JWT_SECRET"),
		TokenTTL:     time.Duration(getEnvInt("LOANBOOK_TOKEN_TTL_SECONDS", 12*3600)) * time.Second,
	}

	if cfg.Passphrase == "" {
		return nil, fmt.Errorf("LOANBOOK_PASSPHRASE is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("LOANBOOK_JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
