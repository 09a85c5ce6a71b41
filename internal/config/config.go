// Package config loads and validates the traybrief configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"traybrief/internal/when"
)

// Feed kinds accepted in [[calendar_feeds]] entries.
const (
	FeedKindICal   = "ical"
	FeedKindGoogle = "google"
	FeedKindCalDAV = "caldav"
)

// GithubAccount is one notification account with its own token.
type GithubAccount struct {
	Name  string `mapstructure:"name"`
	Token string `mapstructure:"token"`
}

// CalendarFeed is one configured calendar source. Which fields apply
// depends on Kind: ical needs URL, google needs Account (and optionally
// CalendarID), caldav needs Username, Password and Calendar.
type CalendarFeed struct {
	Name       string `mapstructure:"name"`
	Kind       string `mapstructure:"kind"`
	URL        string `mapstructure:"url"`
	Account    string `mapstructure:"account"`
	CalendarID string `mapstructure:"calendar_id"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Calendar   string `mapstructure:"calendar"`
}

// Config is the full application configuration.
type Config struct {
	TodoistAPIToken string          `mapstructure:"todoist_api_token"`
	LinearAPIToken  string          `mapstructure:"linear_api_token"`
	GithubAccounts  []GithubAccount `mapstructure:"github_accounts"`
	CalendarFeeds   []CalendarFeed  `mapstructure:"calendar_feeds"`
	SnoozeDurations []string        `mapstructure:"snooze_durations"`
	RefreshInterval time.Duration   `mapstructure:"refresh_interval"`
	Timezone        string          `mapstructure:"timezone"`
	Autostart       bool            `mapstructure:"autostart"`
}

// Dir returns the directory holding config.toml, honoring XDG_CONFIG_HOME.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "traybrief")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "traybrief")
	}
	return filepath.Join(home, ".config", "traybrief")
}

// Load reads config.toml from dir, applies defaults and environment
// overrides for the API tokens, and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.SetDefault("snooze_durations", []string{"30m", "1d"})
	v.SetDefault("refresh_interval", "5m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if tok := os.Getenv("TODOIST_API_TOKEN"); tok != "" {
		cfg.TodoistAPIToken = tok
	}
	if tok := os.Getenv("LINEAR_API_TOKEN"); tok != "" {
		cfg.LinearAPIToken = tok
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the engine relies on.
func (c *Config) Validate() error {
	if c.TodoistAPIToken == "" {
		return fmt.Errorf("config: todoist_api_token is required")
	}

	if len(c.SnoozeDurations) == 0 {
		return fmt.Errorf("config: snooze_durations must not be empty")
	}
	for _, label := range c.SnoozeDurations {
		if _, err := when.ParseSnooze(label); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	if c.RefreshInterval < 0 {
		return fmt.Errorf("config: refresh_interval must not be negative")
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config: unknown timezone %q: %w", c.Timezone, err)
		}
	}

	seen := make(map[string]bool)
	for _, acct := range c.GithubAccounts {
		if acct.Name == "" {
			return fmt.Errorf("config: github account name must not be empty")
		}
		if acct.Token == "" {
			return fmt.Errorf("config: github account %q has no token", acct.Name)
		}
		if seen[acct.Name] {
			return fmt.Errorf("config: duplicate github account %q", acct.Name)
		}
		seen[acct.Name] = true
	}

	seen = make(map[string]bool)
	for _, feed := range c.CalendarFeeds {
		if feed.Name == "" {
			return fmt.Errorf("config: calendar feed name must not be empty")
		}
		if seen[feed.Name] {
			return fmt.Errorf("config: duplicate calendar feed %q", feed.Name)
		}
		seen[feed.Name] = true

		switch feed.Kind {
		case FeedKindICal:
			if feed.URL == "" {
				return fmt.Errorf("config: ical feed %q has no url", feed.Name)
			}
		case FeedKindGoogle:
			if feed.Account == "" {
				return fmt.Errorf("config: google feed %q has no account", feed.Name)
			}
		case FeedKindCalDAV:
			if feed.Username == "" || feed.Password == "" {
				return fmt.Errorf("config: caldav feed %q needs username and password", feed.Name)
			}
			if feed.Calendar == "" {
				return fmt.Errorf("config: caldav feed %q has no calendar name", feed.Name)
			}
		default:
			return fmt.Errorf("config: calendar feed %q has unknown kind %q", feed.Name, feed.Kind)
		}
	}

	return nil
}

// Location resolves the configured timezone, falling back to the system
// local zone when none is set.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
