// Package notifier announces finished builds.
package notifier

import (
	"log/slog"
	"time"

	"github.com/pyvec/pythoncz/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes build summaries to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each build via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the totals and one line per feed. It never fails.
func (n *LogNotifier) Notify(b model.BuildSummary) error {
	n.logger.Info("build finished",
		"started_at", b.StartedAt.Format("2006-01-02 15:04:05"),
		"duration", b.Duration.Round(time.Millisecond),
		"jobs", b.JobsCount,
		"companies", b.CompaniesCount,
	)
	for _, feed := range sortedFeeds(b.FeedCounts) {
		n.logger.Info("feed jobs", "feed", feed, "jobs", b.FeedCounts[feed])
	}
	return nil
}
