package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/pyvec/pythoncz/internal/adapter"
	"github.com/pyvec/pythoncz/internal/config"
	"github.com/pyvec/pythoncz/internal/fetcher"
	"github.com/pyvec/pythoncz/internal/filter"
	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
	"github.com/pyvec/pythoncz/internal/notifier"
	"github.com/pyvec/pythoncz/internal/pipeline"
	"github.com/pyvec/pythoncz/internal/ratelimit"
	"github.com/pyvec/pythoncz/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "pythoncz",
	Short: "Python job board builder",
	Long:  "pythoncz downloads Python job postings from several job boards, classifies their locations and publishes the python.cz job board data.",
	// Default to `build` so that a cron job can invoke the binary directly.
	RunE: runBuild,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: PYTHONCZ_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > PYTHONCZ_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("PYTHONCZ_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, cfg.Notification.SiteURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupDownloader stacks per-host rate limiting under retries, so every
// retried attempt waits for its host as well.
func setupDownloader(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Downloader {
	var d model.Downloader = fetcher.NewHTTPDownloader(httpClient)
	d = ratelimit.NewDownloader(d, ratelimit.NewHostLimiter(cfg.HTTP.MinDelay))
	d = retry.NewDownloader(d, cfg.HTTP.MaxRetries, cfg.HTTP.RetryDelay, logger)
	logger.Debug("downloader configured",
		"min_delay", cfg.HTTP.MinDelay.String(),
		"max_retries", cfg.HTTP.MaxRetries,
		"retry_delay", cfg.HTTP.RetryDelay.String(),
	)
	return d
}

// setupGeocoder returns a memoizing Google geocoder.
func setupGeocoder(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (*geo.Cache, error) {
	client, err := geo.NewGoogleClient(cfg.Geocoding.APIKey, "", httpClient)
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if cfg.Geocoding.MinDelay > 0 {
		limit = rate.Every(cfg.Geocoding.MinDelay)
	}
	g := geo.NewGoogleGeocoder(client, rate.NewLimiter(limit, 1), cfg.Geocoding.Language, cfg.Geocoding.Region, logger)
	return geo.NewCache(g.Geocode), nil
}

// components holds everything a command needs to run the pipeline.
type components struct {
	downloader model.Downloader
	registry   *adapter.Registry
	fetcher    *fetcher.Fetcher
	relevance  *filter.RelevanceFilter
	geocoder   *geo.Cache
	pipeline   *pipeline.Pipeline
}

func buildComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	registry := adapter.NewRegistry()
	for _, f := range cfg.Feeds {
		if _, err := registry.Parser(f.ID); err != nil {
			return nil, fmt.Errorf("feed %s: %w", f.ID, err)
		}
	}

	downloader := setupDownloader(cfg, httpClient, logger)
	geocoder, err := setupGeocoder(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(downloader, registry, logger)
	relevance := filter.NewRelevanceFilter(cfg.Agencies)
	return &components{
		downloader: downloader,
		registry:   registry,
		fetcher:    f,
		relevance:  relevance,
		geocoder:   geocoder,
		pipeline:   pipeline.New(f, downloader, registry, relevance, geocoder.Geocode, logger),
	}, nil
}
