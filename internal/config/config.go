package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pyvec/pythoncz/internal/model"
)

// Config is the root configuration of the job board builder.
type Config struct {
	Feeds        []model.Feed
	Agencies     []string
	OutputDir    string
	Geocoding    GeocodingConfig
	HTTP         HTTPConfig
	Schedule     string // standard cron expression or @every descriptor
	Notification NotificationConfig
	History      HistoryConfig
}

// GeocodingConfig controls the Google Geocoding API client.
type GeocodingConfig struct {
	APIKey   string // expanded from env var by Load
	Language string
	Region   string
	MinDelay time.Duration // minimum gap between two API calls
}

// HTTPConfig controls how feeds and detail pages are downloaded.
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	MinDelay   time.Duration // minimum gap between requests to the same host
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	SiteURL    string `yaml:"site_url"`    // linked from the slack message
}

// HistoryConfig controls the build history database.
type HistoryConfig struct {
	Path      string
	Retention time.Duration // 0 keeps everything
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Feeds        []model.Feed       `yaml:"feeds"`
	Agencies     []string           `yaml:"agencies"`
	OutputDir    string             `yaml:"output_dir"`
	Geocoding    rawGeocodingConfig `yaml:"geocoding"`
	HTTP         rawHTTPConfig      `yaml:"http"`
	Schedule     string             `yaml:"schedule"`
	Notification NotificationConfig `yaml:"notification"`
	History      rawHistoryConfig   `yaml:"history"`
}

type rawGeocodingConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	Region   string `yaml:"region"`
	MinDelay string `yaml:"min_delay"`
}

type rawHTTPConfig struct {
	Timeout    string `yaml:"timeout"`
	MaxRetries *int   `yaml:"max_retries"`
	RetryDelay string `yaml:"retry_delay"`
	MinDelay   string `yaml:"min_delay"`
}

type rawHistoryConfig struct {
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

const (
	defaultOutputDir   = "data"
	defaultLanguage    = "cs"
	defaultRegion      = "cz"
	defaultSchedule    = "0 */6 * * *"
	defaultHistoryPath = "builds.db"
	defaultMaxRetries  = 2

	slackWebhookPrefix = "https://hooks.slack.com/"
)

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Feeds:        raw.Feeds,
		Agencies:     raw.Agencies,
		OutputDir:    orDefault(raw.OutputDir, defaultOutputDir),
		Schedule:     orDefault(raw.Schedule, defaultSchedule),
		Notification: raw.Notification,
		Geocoding: GeocodingConfig{
			APIKey:   raw.Geocoding.APIKey,
			Language: orDefault(raw.Geocoding.Language, defaultLanguage),
			Region:   orDefault(raw.Geocoding.Region, defaultRegion),
		},
		HTTP: HTTPConfig{
			MaxRetries: defaultMaxRetries,
		},
		History: HistoryConfig{
			Path: orDefault(raw.History.Path, defaultHistoryPath),
		},
	}
	if raw.HTTP.MaxRetries != nil {
		cfg.HTTP.MaxRetries = *raw.HTTP.MaxRetries
	}

	if cfg.Geocoding.MinDelay, err = parseDuration("geocoding.min_delay", raw.Geocoding.MinDelay, 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HTTP.Timeout, err = parseDuration("http.timeout", raw.HTTP.Timeout, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTP.RetryDelay, err = parseDuration("http.retry_delay", raw.HTTP.RetryDelay, 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTP.MinDelay, err = parseDuration("http.min_delay", raw.HTTP.MinDelay, time.Second); err != nil {
		return nil, err
	}
	if cfg.History.Retention, err = parseDuration("history.retention", raw.History.Retention, 0); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseDuration returns def for an empty value.
func parseDuration(name, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, value, err)
	}
	return d, nil
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func validate(cfg *Config) error {
	if len(cfg.Feeds) == 0 {
		return fmt.Errorf("at least one feed must be configured")
	}
	seen := make(map[string]bool)
	for i, f := range cfg.Feeds {
		if f.ID == "" || f.FeedURL == "" {
			return fmt.Errorf("feeds[%d]: id and feed_url are required", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("feeds[%d]: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = true
	}

	if cfg.Geocoding.APIKey == "" {
		return fmt.Errorf("geocoding.api_key is required")
	}

	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must not be negative, got %d", cfg.HTTP.MaxRetries)
	}
	for name, d := range map[string]time.Duration{
		"geocoding.min_delay": cfg.Geocoding.MinDelay,
		"http.retry_delay":    cfg.HTTP.RetryDelay,
		"http.min_delay":      cfg.HTTP.MinDelay,
		"history.retention":   cfg.History.Retention,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, d)
		}
	}

	switch cfg.Notification.Type {
	case "", "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
