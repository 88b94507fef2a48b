package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyvec/pythoncz/internal/audit"
	"github.com/pyvec/pythoncz/internal/config"
	"github.com/pyvec/pythoncz/internal/model"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect location classification interactively (TUI)",
	Long:  "Shows the feed picker TUI, then a split-pane view of the feed's raw postings next to their classified locations.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Any log output while the TUI runs corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := buildComponents(cfg, silentLogger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}
	runAudit(cfg, c)
	return nil
}

func runAudit(cfg *config.Config, c *components) {
	if len(cfg.Feeds) == 0 {
		fmt.Println("No feeds in config.")
		return
	}

	for {
		choice, err := audit.RunFeedPicker(cfg.Feeds)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		feed := cfg.Feeds[choice]

		postings, err := audit.RunLoader(feed.Name, func(ctx context.Context) ([]model.Posting, error) {
			return collect(ctx, c, feed)
		})
		if err != nil {
			fmt.Printf("Error fetching postings: %v\n", err)
			continue
		}

		all, kept := audit.Classify(postings, c.relevance)

		var detailFn audit.DetailFunc
		if dp, ok := c.registry.DetailParser(feed.ID); ok {
			detailFn = func(ctx context.Context, p model.Posting) ([]model.Posting, error) {
				body, err := c.downloader.Download(ctx, p.URL)
				if err != nil {
					return nil, err
				}
				updates, err := dp.ParseDetail(body, p.URL)
				if err != nil {
					return nil, err
				}
				refined := make([]model.Posting, 0, len(updates))
				for _, u := range updates {
					refined = append(refined, p.Refine(u))
				}
				return refined, nil
			}
		}

		wantQuit, err := audit.RunAuditTUI(all, kept, detailFn, c.geocoder.Geocode)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
	}
}

// collect fetches every listing of feed without detail pages or geocoding.
func collect(ctx context.Context, c *components, feed model.Feed) ([]model.Posting, error) {
	var postings []model.Posting
	for p, err := range c.fetcher.Fetch(ctx, feed) {
		if err != nil {
			return nil, err
		}
		postings = append(postings, p.WithFeed(feed.Ref()))
	}
	return postings, nil
}
