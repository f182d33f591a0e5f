package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds client settings. RequestTimeoutSeconds of zero means no
// client-side timeout: an analysis can legitimately take many minutes and the
// session stays in its waiting stage until the backend settles.
type Config struct {
	BaseURL               string `json:"base_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	CredentialsDir        string `json:"credentials_dir"`
}

// DefaultConfig builds a Config from defaults, a .env file if present, and
// environment variable overrides.
func DefaultConfig() *Config {
	cfg := &Config{
		BaseURL:               "http://localhost:8000",
		RequestTimeoutSeconds: 0,
		CredentialsDir:        defaultCredentialsDir(),
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("AITRADER_BASE_URL"); val != "" {
		c.BaseURL = val
	}
	if val := os.Getenv("AITRADER_TIMEOUT_SECONDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RequestTimeoutSeconds = v
		}
	}
	if val := os.Getenv("AITRADER_CREDENTIALS_DIR"); val != "" {
		c.CredentialsDir = val
	}
}

// Validate checks the config is usable before any network call is attempted.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", c.BaseURL)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative")
	}
	if c.CredentialsDir == "" {
		return fmt.Errorf("credentials_dir must not be empty")
	}
	return nil
}

func defaultCredentialsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.Getwd()
	}
	return filepath.Join(dir, "aitrader")
}

// DefaultConfigWithRoot returns defaults with all file paths anchored under
// the given directory. Used when recreating a deleted config file.
func DefaultConfigWithRoot(root string) *Config {
	cfg := DefaultConfig()
	cfg.CredentialsDir = root
	return cfg
}
