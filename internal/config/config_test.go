package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
feeds:
  - id: jobscz
    name: Jobs.cz
    feed_url: https://www.jobs.cz/api/export/python.xml
    url: https://www.jobs.cz
geocoding:
  api_key: secret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("TEST_GEOCODING_KEY", "from-env")
	path := writeConfig(t, `
feeds:
  - id: jobscz
    name: Jobs.cz
    feed_url: https://www.jobs.cz/api/export/python.xml
    url: https://www.jobs.cz
  - id: stackoverflowcom
    name: Stack Overflow
    feed_url: https://stackoverflow.com/jobs?l=Czechia&pg=%p
    url: https://stackoverflow.com/jobs
agencies:
  - Grafton Recruitment
output_dir: public/data
geocoding:
  api_key: ${TEST_GEOCODING_KEY}
  language: en
  min_delay: 250ms
http:
  timeout: 10s
  max_retries: 0
  retry_delay: 2s
  min_delay: 500ms
schedule: "@every 1h"
notification:
  type: slack
  webhook_url: https://hooks.slack.com/services/T/B/X
  site_url: https://python.cz/prace/
history:
  path: var/builds.db
  retention: 720h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Feeds) != 2 || cfg.Feeds[1].ID != "stackoverflowcom" || cfg.Feeds[1].FeedURL != "https://stackoverflow.com/jobs?l=Czechia&pg=%p" {
		t.Errorf("Feeds = %+v", cfg.Feeds)
	}
	if len(cfg.Agencies) != 1 || cfg.Agencies[0] != "Grafton Recruitment" {
		t.Errorf("Agencies = %v", cfg.Agencies)
	}
	if cfg.OutputDir != "public/data" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Geocoding.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want value expanded from env", cfg.Geocoding.APIKey)
	}
	if cfg.Geocoding.Language != "en" || cfg.Geocoding.Region != "cz" {
		t.Errorf("Geocoding = %+v", cfg.Geocoding)
	}
	if cfg.Geocoding.MinDelay != 250*time.Millisecond {
		t.Errorf("Geocoding.MinDelay = %v", cfg.Geocoding.MinDelay)
	}
	want := HTTPConfig{Timeout: 10 * time.Second, MaxRetries: 0, RetryDelay: 2 * time.Second, MinDelay: 500 * time.Millisecond}
	if cfg.HTTP != want {
		t.Errorf("HTTP = %+v, want %+v", cfg.HTTP, want)
	}
	if cfg.Schedule != "@every 1h" {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.Notification.Type != "slack" || cfg.Notification.SiteURL != "https://python.cz/prace/" {
		t.Errorf("Notification = %+v", cfg.Notification)
	}
	if cfg.History.Path != "var/builds.db" || cfg.History.Retention != 720*time.Hour {
		t.Errorf("History = %+v", cfg.History)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != defaultOutputDir {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, defaultOutputDir)
	}
	if cfg.Geocoding.Language != "cs" || cfg.Geocoding.Region != "cz" || cfg.Geocoding.MinDelay != 100*time.Millisecond {
		t.Errorf("Geocoding = %+v", cfg.Geocoding)
	}
	want := HTTPConfig{Timeout: 30 * time.Second, MaxRetries: 2, RetryDelay: 5 * time.Second, MinDelay: time.Second}
	if cfg.HTTP != want {
		t.Errorf("HTTP = %+v, want %+v", cfg.HTTP, want)
	}
	if cfg.Schedule != defaultSchedule {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.History.Path != defaultHistoryPath || cfg.History.Retention != 0 {
		t.Errorf("History = %+v", cfg.History)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "feeds: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no feeds",
			content: "geocoding:\n  api_key: secret\n",
			wantErr: "at least one feed",
		},
		{
			name:    "missing api key",
			content: strings.Replace(minimalConfig, "api_key: secret", "api_key: \"\"", 1),
			wantErr: "geocoding.api_key is required",
		},
		{
			name:    "api key from unset env var",
			content: strings.Replace(minimalConfig, "api_key: secret", "api_key: ${PYTHONCZ_TEST_UNSET_KEY}", 1),
			wantErr: "geocoding.api_key is required",
		},
		{
			name: "feed without url",
			content: `
feeds:
  - id: jobscz
geocoding:
  api_key: secret
`,
			wantErr: "feed_url are required",
		},
		{
			name: "duplicate feed id",
			content: `
feeds:
  - id: jobscz
    feed_url: https://a.example/
  - id: jobscz
    feed_url: https://b.example/
geocoding:
  api_key: secret
`,
			wantErr: "duplicate id",
		},
		{
			name:    "bad duration",
			content: minimalConfig + "http:\n  timeout: soon\n",
			wantErr: "parse http.timeout",
		},
		{
			name:    "zero timeout",
			content: minimalConfig + "http:\n  timeout: 0s\n",
			wantErr: "http.timeout must be positive",
		},
		{
			name:    "negative retries",
			content: minimalConfig + "http:\n  max_retries: -1\n",
			wantErr: "http.max_retries",
		},
		{
			name:    "slack without webhook",
			content: minimalConfig + "notification:\n  type: slack\n",
			wantErr: "webhook_url is required",
		},
		{
			name:    "slack with foreign webhook",
			content: minimalConfig + "notification:\n  type: slack\n  webhook_url: https://example.com/hook\n",
			wantErr: "must start with https://hooks.slack.com/",
		},
		{
			name:    "unknown notifier",
			content: minimalConfig + "notification:\n  type: email\n",
			wantErr: "notification.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load: expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
