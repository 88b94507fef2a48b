package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyvec/pythoncz/internal/aggregate"
	"github.com/pyvec/pythoncz/internal/config"
	"github.com/pyvec/pythoncz/internal/model"
	"github.com/pyvec/pythoncz/internal/publish"
	"github.com/pyvec/pythoncz/internal/store"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the job board once",
	Long:  "Runs the whole pipeline once, writes the JSON artifacts, records the build and sends a notification.",
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// postingSource is the part of the pipeline a build needs.
type postingSource interface {
	Run(ctx context.Context, feeds []model.Feed) ([]model.Posting, error)
}

// builder runs one build end to end. Artifacts are written only after every
// feed was fetched and every location resolved.
type builder struct {
	source    postingSource
	feeds     []model.Feed
	writer    *publish.Writer
	history   model.BuildStore
	retention time.Duration
	notifier  model.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func (b *builder) build(ctx context.Context) error {
	started := b.now()
	postings, err := b.source.Run(ctx, b.feeds)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := b.writer.Publish(postings, started); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	summary := summarize(postings, started, b.now().Sub(started))
	if err := b.history.Record(summary); err != nil {
		b.logger.Warn("failed to record build", "error", err)
	}
	if b.retention > 0 {
		if err := b.history.Cleanup(b.retention); err != nil {
			b.logger.Warn("failed to clean up build history", "error", err)
		}
	}
	if err := b.notifier.Notify(summary); err != nil {
		b.logger.Warn("failed to send notification", "error", err)
	}
	return nil
}

func summarize(postings []model.Posting, started time.Time, took time.Duration) model.BuildSummary {
	stats := aggregate.ComputeStats(postings)
	feedCounts := make(map[string]int, len(stats.Feeds))
	for _, f := range stats.Feeds {
		feedCounts[f.ID] = f.JobsCount
	}
	return model.BuildSummary{
		StartedAt:      started,
		Duration:       took,
		JobsCount:      stats.JobsCount,
		CompaniesCount: stats.CompaniesCount,
		FeedCounts:     feedCounts,
	}
}

// newBuilder wires a builder from config. The returned close function
// releases the history database.
func newBuilder(cfg *config.Config, logger *slog.Logger) (*builder, func(), error) {
	logger.Info("config loaded",
		"feeds", len(cfg.Feeds),
		"agencies", len(cfg.Agencies),
		"output_dir", cfg.OutputDir,
	)

	c, err := buildComponents(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	sqlStore, err := store.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	b := &builder{
		source:    c.pipeline,
		feeds:     cfg.Feeds,
		writer:    publish.NewWriter(cfg.OutputDir, logger),
		history:   sqlStore,
		retention: cfg.History.Retention,
		notifier:  setupNotifier(cfg, &http.Client{Timeout: cfg.HTTP.Timeout}, logger),
		logger:    logger,
		now:       time.Now,
	}
	return b, func() { sqlStore.Close() }, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	b, closeFn, err := newBuilder(cfg, logger)
	if err != nil {
		logger.Error("failed to set up build", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.build(ctx); err != nil {
		logger.Error("build failed", "error", err)
		closeFn()
		os.Exit(1)
	}
	logger.Info("build complete")
	return nil
}
