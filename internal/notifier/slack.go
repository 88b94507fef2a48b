package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pyvec/pythoncz/internal/model"
)

var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts build summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	siteURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts to webhookURL. The message
// links to siteURL.
func NewSlackNotifier(webhookURL, siteURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		siteURL:    siteURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one Block Kit message. A 429 response is retried once after
// the Retry-After delay.
func (s *SlackNotifier) Notify(b model.BuildSummary) error {
	body, err := json.Marshal(buildPayload(b, s.siteURL))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack message sent", "jobs", b.JobsCount, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack message sent", "jobs", b.JobsCount)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a made-up build summary to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	return n.Notify(model.BuildSummary{
		StartedAt:      time.Now(),
		Duration:       42 * time.Second,
		JobsCount:      3,
		CompaniesCount: 2,
		FeedCounts:     map[string]int{"test": 3},
	})
}

func buildPayload(b model.BuildSummary, siteURL string) slackPayload {
	prague, err := time.LoadLocation("Europe/Prague")
	started := b.StartedAt
	if err == nil {
		started = started.In(prague)
	}

	var feeds strings.Builder
	for _, feed := range sortedFeeds(b.FeedCounts) {
		fmt.Fprintf(&feeds, "• %s: %d\n", feed, b.FeedCounts[feed])
	}
	if feeds.Len() == 0 {
		feeds.WriteString("• no feeds")
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🐍 python.cz jobs rebuilt"},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Jobs:*\n" + strconv.Itoa(b.JobsCount)},
				{Type: "mrkdwn", Text: "*Companies:*\n" + strconv.Itoa(b.CompaniesCount)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Started:*\n" + started.Format(time.RFC1123)},
				{Type: "mrkdwn", Text: "*Took:*\n" + b.Duration.Round(time.Second).String()},
			},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Feeds:*\n" + strings.TrimRight(feeds.String(), "\n")},
		},
	}

	if siteURL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "Open job board"},
					URL:   siteURL,
					Style: "primary",
				},
			},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}

func sortedFeeds(counts map[string]int) []string {
	feeds := make([]string, 0, len(counts))
	for f := range counts {
		feeds = append(feeds, f)
	}
	sort.Strings(feeds)
	return feeds
}
