// Package config loads depdash settings from an optional TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Supported tracker platforms
const (
	PlatformGitLab = "gitlab"
	PlatformGitHub = "github"
	PlatformJira   = "jira"
)

const (
	defaultHTTPTimeout     = 30 * time.Second
	defaultJiraIssueType   = "Task"
	defaultJiraCloseStatus = "Done"
	defaultRESTPort        = "8080"
)

// ErrConfiguration is matched by every ConfigurationError
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a missing or invalid setting
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrConfiguration) match any ConfigurationError
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Config holds everything needed to reach the tracker
type Config struct {
	Platform   string `toml:"platform"`
	Endpoint   string `toml:"endpoint"`
	Repository string `toml:"repository"`
	Token      string `toml:"token"`
	Username   string `toml:"username"`

	JiraIssueType   string `toml:"jira_issue_type"`
	JiraCloseStatus string `toml:"jira_close_status"`

	// Timeout is the raw duration string from the file or environment
	Timeout     string        `toml:"http_timeout"`
	HTTPTimeout time.Duration `toml:"-"`
	RESTPort    string        `toml:"rest_port"`
}

// Load reads the TOML file at path (skipped when path is empty), applies
// environment overrides and fills defaults. It does not validate.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Platform = getEnv("DEPDASH_PLATFORM", cfg.Platform)
	cfg.Endpoint = getEnv("DEPDASH_ENDPOINT", cfg.Endpoint)
	cfg.Repository = getEnv("DEPDASH_REPOSITORY", cfg.Repository)
	cfg.Token = getEnv("DEPDASH_TOKEN", cfg.Token)
	cfg.Username = getEnv("DEPDASH_USERNAME", cfg.Username)
	cfg.JiraIssueType = getEnv("DEPDASH_JIRA_ISSUE_TYPE", cfg.JiraIssueType)
	cfg.JiraCloseStatus = getEnv("DEPDASH_JIRA_CLOSE_STATUS", cfg.JiraCloseStatus)
	cfg.RESTPort = getEnv("REST_PORT", cfg.RESTPort)

	cfg.Timeout = getEnv("DEPDASH_HTTP_TIMEOUT", cfg.Timeout)
	if cfg.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, &ConfigurationError{Field: "http_timeout", Reason: err.Error()}
		}
		cfg.HTTPTimeout = timeout
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Platform == "" {
		c.Platform = PlatformGitLab
	}
	if c.JiraIssueType == "" {
		c.JiraIssueType = defaultJiraIssueType
	}
	if c.JiraCloseStatus == "" {
		c.JiraCloseStatus = defaultJiraCloseStatus
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.RESTPort == "" {
		c.RESTPort = defaultRESTPort
	}
}

// Validate checks the settings required to build a tracker client
func (c *Config) Validate() error {
	switch c.Platform {
	case PlatformGitLab, PlatformGitHub, PlatformJira:
	default:
		return &ConfigurationError{Field: "platform", Reason: fmt.Sprintf("unsupported platform %q", c.Platform)}
	}
	// Self-hosted dashboards have no public default URL to fall back on.
	if c.Endpoint == "" {
		return &ConfigurationError{Field: "endpoint", Reason: "a dashboard endpoint URL is required"}
	}
	if c.Repository == "" {
		return &ConfigurationError{Field: "repository", Reason: "a repository identifier is required"}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
