package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pyvec/pythoncz/internal/aggregate"
	"github.com/pyvec/pythoncz/internal/model"
)

var checkFeed string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the pipeline once, print postings, exit",
	Long:  "Dry run: fetches every configured feed (or only --feed), prints the resulting postings and stats. Writes no artifacts and records no history.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFeed, "feed", "", "only check the feed with this id")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	feeds := cfg.Feeds
	if checkFeed != "" {
		feeds = selectFeed(cfg.Feeds, checkFeed)
		if feeds == nil {
			logger.Error("unknown feed", "feed", checkFeed)
			os.Exit(1)
		}
	}

	logger.Info("check mode: nothing will be written")

	c, err := buildComponents(cfg, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var postings []model.Posting
	for p, err := range c.pipeline.Stream(ctx, feeds) {
		if err != nil {
			logger.Error("check failed", "error", err)
			os.Exit(1)
		}
		postings = append(postings, p)
	}

	printPostings(postings)
	printStats(aggregate.ComputeStats(postings))

	hits, misses := c.geocoder.Stats()
	logger.Info("check complete", "geocode_hits", hits, "geocode_misses", misses)
	return nil
}

func selectFeed(feeds []model.Feed, id string) []model.Feed {
	for _, f := range feeds {
		if f.ID == id {
			return []model.Feed{f}
		}
	}
	return nil
}

func printPostings(postings []model.Posting) {
	fmt.Printf("%-30s %-14s %-18s %s\n", "Company", "Location", "Feed", "URL")
	fmt.Println(strings.Repeat("─", 90))
	for _, p := range postings {
		fmt.Printf("%-30s %-14s %-18s %s\n", truncate(p.CompanyName, 30), p.Location, p.Feed.ID, p.URL)
	}
	fmt.Println()
}

func printStats(s aggregate.Stats) {
	fmt.Printf("Jobs: %d (%d remote, %d in Czechia, %d abroad)\n",
		s.JobsCount, s.RemoteJobsCount, s.CzechJobsCount, s.NonCzechJobsCount)
	fmt.Printf("Companies: %d (%d remote, %d in Czechia, %d abroad)\n",
		s.CompaniesCount, s.RemoteCompaniesCount, s.CzechCompaniesCount, s.NonCzechCompaniesCount)
	for _, f := range s.Feeds {
		fmt.Printf("  %-18s %d\n", f.ID, f.JobsCount)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
