package config

import (
	"errors"
	"net/url"
	"time"
)

// Config represents the complete pullman configuration.
type Config struct {
	GitHub GitHubConfig `toml:"github"`
	Git    GitConfig    `toml:"git"`
	HTTP   HTTPConfig   `toml:"http"`
	PR     PRConfig     `toml:"pr"`
}

// Validate checks that all config values are valid.
// Returns an error describing the first invalid value found.
func (c Config) Validate() error {
	if err := validateBaseURL(c.GitHub.APIBaseURL); err != nil {
		return errors.New("github.api_base_url must be a valid http(s) URL")
	}
	if err := validateBaseURL(c.GitHub.WebBaseURL); err != nil {
		return errors.New("github.web_base_url must be a valid http(s) URL")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("http.timeout cannot be negative")
	}
	if c.HTTP.MaxRetries < 0 {
		return errors.New("http.max_retries cannot be negative")
	}
	if c.Git.Timeout < 0 {
		return errors.New("git.timeout cannot be negative")
	}
	if c.PR.Limit < 0 {
		return errors.New("pr.limit cannot be negative")
	}
	return nil
}

// GitHubConfig configures the remote service endpoints and OAuth app.
type GitHubConfig struct {
	APIBaseURL string `toml:"api_base_url"` // REST API endpoint
	WebBaseURL string `toml:"web_base_url"` // hosts the device-code OAuth endpoints
	ClientID   string `toml:"client_id"`    // OAuth app client id for the device flow
}

// GitConfig configures git command execution.
type GitConfig struct {
	Timeout time.Duration `toml:"timeout"` // Timeout for git commands (e.g., "5s")
}

// HTTPConfig configures the request client.
type HTTPConfig struct {
	Timeout    time.Duration `toml:"timeout"`     // Per-request timeout (e.g., "30s")
	MaxRetries int           `toml:"max_retries"` // Retry budget for transient failures
}

// PRConfig configures pull-request listings.
type PRConfig struct {
	Limit int `toml:"limit"` // Maximum pull requests per listing
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
