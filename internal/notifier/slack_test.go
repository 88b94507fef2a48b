package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pyvec/pythoncz/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSummary() model.BuildSummary {
	return model.BuildSummary{
		StartedAt:      time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Duration:       95 * time.Second,
		JobsCount:      12,
		CompaniesCount: 7,
		FeedCounts:     map[string]int{"remoteok": 2, "jobscz": 10},
	}
}

func TestSlackNotifier_Payload(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "https://python.cz/prace/", srv.Client(), discardLogger())
	if err := n.Notify(sampleSummary()); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if got := payload.Blocks[0].Text.Text; got != "🐍 python.cz jobs rebuilt" {
		t.Errorf("header text = %q", got)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Jobs:*\n12" {
		t.Errorf("jobs field = %q", got)
	}
	if got := payload.Blocks[2].Fields[1].Text; got != "*Took:*\n1m35s" {
		t.Errorf("duration field = %q", got)
	}
	if got := payload.Blocks[3].Text.Text; got != "*Feeds:*\n• jobscz: 10\n• remoteok: 2" {
		t.Errorf("feeds section = %q", got)
	}
	if got := payload.Blocks[4].Elements[0].URL; got != "https://python.cz/prace/" {
		t.Errorf("action URL = %q", got)
	}
}

func TestSlackNotifier_NoSiteURL(t *testing.T) {
	payload := buildPayload(sampleSummary(), "")
	for _, b := range payload.Blocks {
		if b.Type == "actions" {
			t.Error("expected no button without a site url")
		}
	}
}

func TestSlackNotifier_SlackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "", srv.Client(), discardLogger())
	err := n.Notify(sampleSummary())
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error naming status 500, got %v", err)
	}
}

func TestSlackNotifier_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "", srv.Client(), discardLogger())
	if err := n.Notify(sampleSummary()); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}

func TestSendTestMessage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := SendTestMessage(NewSlackNotifier(srv.URL, "", srv.Client(), discardLogger())); err != nil {
		t.Fatalf("SendTestMessage() = %v", err)
	}
	if c := calls.Load(); c != 1 {
		t.Errorf("expected 1 HTTP call, got %d", c)
	}
}
