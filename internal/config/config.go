// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultBackendURL is the fallback backend address used when BACKEND_URL is
// not set. It matches the development stub's default port.
const DefaultBackendURL = "http://localhost:8000"

// Config holds configuration for the terminal client.
type Config struct {
	BackendURL    string
	SessionDBPath string
	LogPath       string
	HTTPTimeout   time.Duration
}

// Load reads client configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BackendURL:    getEnv("BACKEND_URL", DefaultBackendURL),
		SessionDBPath: getEnv("SESSION_DB_PATH", defaultStatePath("session.db")),
		LogPath:       getEnv("LOG_PATH", defaultStatePath("ragchat.log")),
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 60)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("BACKEND_URL must be an http(s) address, got %q", c.BackendURL)
	}
	if c.SessionDBPath == "" {
		return fmt.Errorf("SESSION_DB_PATH cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be > 0")
	}
	return nil
}

// StubConfig holds configuration for the development stub backend.
type StubConfig struct {
	Port        string
	FrontendURL string
}

// LoadStub reads stub backend configuration from environment variables.
func LoadStub() (*StubConfig, error) {
	cfg := &StubConfig{
		Port:        getEnv("PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("invalid configuration: PORT cannot be empty")
	}
	return cfg, nil
}

// defaultStatePath places client state under the user config directory,
// falling back to the working directory when none is available.
func defaultStatePath(name string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".ragchat", name)
	}
	return filepath.Join(base, "ragchat", name)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
