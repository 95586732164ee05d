// Package config loads the planner's credentials file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tracker holds the credentials for the issue tracker's REST API.
type Tracker struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// Config is the on-disk configuration. UserEmail is the identity matched by
// the auto-scheduling sweep; when empty the tracker account email is used.
type Config struct {
	Tracker      Tracker `yaml:"tracker"`
	UserEmail    string  `yaml:"user_email"`
	AutoSchedule bool    `yaml:"auto_schedule"`
}

// Load reads the config file at path. A missing file yields an empty config
// so the planner can run in local-only mode.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// TrackerConfigured reports whether the tracker credentials are usable.
func (c *Config) TrackerConfigured() bool {
	return c.Tracker.BaseURL != "" && c.Tracker.APIToken != ""
}

// UserIdentifier returns the email matched against issue assignees.
func (c *Config) UserIdentifier() string {
	if c.UserEmail != "" {
		return c.UserEmail
	}
	return c.Tracker.Email
}
