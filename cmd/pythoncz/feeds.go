package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyvec/pythoncz/internal/adapter"
	"github.com/pyvec/pythoncz/internal/fetcher"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List all configured feeds",
	Long:  "Reads the config and prints a table of all configured feeds and what their parsers support.",
	RunE:  runFeeds,
}

func init() {
	rootCmd.AddCommand(feedsCmd)
}

func runFeeds(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	registry := adapter.NewRegistry()

	fmt.Printf("%-18s %-22s %-10s %-8s %s\n", "ID", "Name", "Paginated", "Details", "Feed URL")
	fmt.Println(strings.Repeat("─", 90))

	unsupported := 0
	for _, f := range cfg.Feeds {
		details := "no"
		if _, ok := registry.DetailParser(f.ID); ok {
			details = "yes"
		}
		if _, err := registry.Parser(f.ID); err != nil {
			details = "-"
			unsupported++
		}
		paginated := "no"
		if fetcher.IsPaginated(f.FeedURL) {
			paginated = "yes"
		}
		fmt.Printf("%-18s %-22s %-10s %-8s %s\n", f.ID, f.Name, paginated, details, f.FeedURL)
	}

	fmt.Printf("\nTotal: %d feeds (%d unsupported)\n", len(cfg.Feeds), unsupported)
	fmt.Printf("Supported ids: %s\n", strings.Join(registry.IDs(), ", "))
	return nil
}
