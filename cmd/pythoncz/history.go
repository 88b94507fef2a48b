package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyvec/pythoncz/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent builds",
	Long:  "Prints the most recent builds recorded in the history database, newest first.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of builds to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open history: %v\n", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	builds, err := sqlStore.Recent(historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read history: %v\n", err)
		os.Exit(1)
	}
	if len(builds) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	fmt.Printf("%-20s %-10s %-6s %-10s %s\n", "Started", "Took", "Jobs", "Companies", "Feeds")
	fmt.Println(strings.Repeat("─", 80))
	for _, b := range builds {
		ids := make([]string, 0, len(b.FeedCounts))
		for id := range b.FeedCounts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		feeds := make([]string, len(ids))
		for i, id := range ids {
			feeds[i] = fmt.Sprintf("%s=%d", id, b.FeedCounts[id])
		}
		fmt.Printf("%-20s %-10s %-6d %-10d %s\n",
			b.StartedAt.Local().Format("2006-01-02 15:04:05"),
			b.Duration.Round(time.Second),
			b.JobsCount,
			b.CompaniesCount,
			strings.Join(feeds, " "),
		)
	}
	return nil
}
