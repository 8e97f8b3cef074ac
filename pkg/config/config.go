// Package config loads the agent configuration from YAML or JSON files
// with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/swipingforjobs/jobswipe/pkg/kvs"
)

// Errors returned by loading and validation.
var (
	// ErrConfigFileNotFound is returned when the config file does not exist.
	ErrConfigFileNotFound = errors.New("config: file not found")
)

// Config is the agent configuration.
type Config struct {
	// API configures the backend boundary.
	API APIConfig `yaml:"api" json:"api"`

	// Storage configures the local credential store.
	Storage kvs.Config `yaml:"storage" json:"storage"`

	// Session configures custody behavior.
	Session SessionConfig `yaml:"session" json:"session"`

	// Activity configures the monitor cadences.
	Activity ActivityConfig `yaml:"activity" json:"activity"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig configures the backend API client.
type APIConfig struct {
	// BaseURL is the backend base URL, e.g. https://api.swipingforjobs.app
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// SessionConfig configures session custody.
type SessionConfig struct {
	// RefreshWindowMinutes is the remaining lifetime at which reconcile
	// starts refreshing the token. Default 60.
	RefreshWindowMinutes int `yaml:"refresh_window_minutes" json:"refresh_window_minutes"`
}

// ActivityConfig configures the activity monitor. Durations are strings
// in time.ParseDuration format.
type ActivityConfig struct {
	PollInterval      string `yaml:"poll_interval" json:"poll_interval"`
	WatchInterval     string `yaml:"watch_interval" json:"watch_interval"`
	InactivityTimeout string `yaml:"inactivity_timeout" json:"inactivity_timeout"`

	// MarkerPath is the interaction marker file other invocations touch.
	MarkerPath string `yaml:"marker_path" json:"marker_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default info.
	Level string `yaml:"level" json:"level"`

	// Color enables ANSI colors when the output is a terminal.
	Color bool `yaml:"color" json:"color"`
}

// GetPollInterval parses the poll interval.
func (a ActivityConfig) GetPollInterval() (time.Duration, error) {
	return parseDuration(a.PollInterval, 5*time.Minute)
}

// GetWatchInterval parses the expiry watch interval.
func (a ActivityConfig) GetWatchInterval() (time.Duration, error) {
	return parseDuration(a.WatchInterval, time.Minute)
}

// GetInactivityTimeout parses the inactivity timeout.
func (a ActivityConfig) GetInactivityTimeout() (time.Duration, error) {
	return parseDuration(a.InactivityTimeout, 30*time.Minute)
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("config: api.base_url is not a valid URL: %w", err)
	}

	if c.Session.RefreshWindowMinutes < 0 {
		return errors.New("config: session.refresh_window_minutes must not be negative")
	}

	for _, parse := range []func() (time.Duration, error){
		func() (time.Duration, error) { return c.Activity.GetPollInterval() },
		func() (time.Duration, error) { return c.Activity.GetWatchInterval() },
		func() (time.Duration, error) { return c.Activity.GetInactivityTimeout() },
	} {
		if _, err := parse(); err != nil {
			return err
		}
	}

	return nil
}

// ApplyDefaults sets default values for optional fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Session.RefreshWindowMinutes == 0 {
		cfg.Session.RefreshWindowMinutes = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Activity.MarkerPath == "" {
		cfg.Activity.MarkerPath = DefaultMarkerPath()
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	return filepath.Join(configDir, "jobswipe", "config.yaml")
}

// DefaultMarkerPath returns the default interaction marker location.
func DefaultMarkerPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "jobswipe", "activity")
}
