package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
)

const (
	EnvAPIBaseURL     = "API_BASE_URL"
	EnvAPITimeout     = "API_TIMEOUT"
	EnvAPIMaxFileSize = "API_MAX_FILE_SIZE"
)

// APIConfig locates the document repository and bounds its responses.
type APIConfig struct {
	// BaseURL is the repository root, e.g. "http://127.0.0.1:8000".
	BaseURL string `toml:"base_url"`

	// Timeout applies to each request. Default: "30s".
	Timeout string `toml:"timeout"`

	// MaxFileSize bounds version file downloads, in human units. Default: "100MB".
	MaxFileSize string `toml:"max_file_size"`

	timeoutVal     time.Duration
	maxFileSizeVal int64
}

// TimeoutDuration returns the parsed request timeout.
func (c *APIConfig) TimeoutDuration() time.Duration {
	return c.timeoutVal
}

// MaxFileSizeBytes returns the parsed file size limit.
func (c *APIConfig) MaxFileSizeBytes() int64 {
	return c.maxFileSizeVal
}

func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxFileSize != "" {
		c.MaxFileSize = overlay.MaxFileSize
	}
}

func (c *APIConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://127.0.0.1:8000"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "100MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAPITimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvAPIMaxFileSize); v != "" {
		c.MaxFileSize = v
	}
}

func (c *APIConfig) validate() error {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: scheme and host required", c.BaseURL)
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	c.timeoutVal = d

	size, err := units.FromHumanSize(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	c.maxFileSizeVal = size

	return nil
}
