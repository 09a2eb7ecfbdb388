package config

import "time"

// defaultClientID identifies the pullman OAuth app for the device flow.
const defaultClientID = "Ov23liT8PullmanCli01"

// DefaultConfig returns sensible defaults for all configuration.
func DefaultConfig() Config {
	return Config{
		GitHub: GitHubConfig{
			APIBaseURL: "https://api.github.com",
			WebBaseURL: "https://github.com",
			ClientID:   defaultClientID,
		},
		Git: GitConfig{
			Timeout: 5 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		PR: PRConfig{
			Limit: 20,
		},
	}
}
