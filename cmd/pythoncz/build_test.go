package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pyvec/pythoncz/internal/model"
	"github.com/pyvec/pythoncz/internal/publish"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	postings []model.Posting
	err      error
}

func (s *fakeSource) Run(ctx context.Context, feeds []model.Feed) ([]model.Posting, error) {
	return s.postings, s.err
}

type recordingStore struct {
	recorded  []model.BuildSummary
	cleanedUp []time.Duration
	err       error
}

func (s *recordingStore) Record(b model.BuildSummary) error {
	s.recorded = append(s.recorded, b)
	return s.err
}

func (s *recordingStore) Recent(limit int) ([]model.BuildSummary, error) {
	return s.recorded, nil
}

func (s *recordingStore) Cleanup(olderThan time.Duration) error {
	s.cleanedUp = append(s.cleanedUp, olderThan)
	return nil
}

type recordingNotifier struct {
	notified []model.BuildSummary
	err      error
}

func (n *recordingNotifier) Notify(b model.BuildSummary) error {
	n.notified = append(n.notified, b)
	return n.err
}

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[min(i, len(times)-1)]
		i++
		return t
	}
}

func testPostings() []model.Posting {
	jobs := model.FeedRef{ID: "jobscz", Name: "Jobs.cz"}
	remote := model.FeedRef{ID: "remoteok", Name: "RemoteOK"}
	return []model.Posting{
		{URL: "https://jobs.example/1", CompanyName: "Kiwi.com", CompanyID: "Kiwi.com", Location: "cz_jhm", Feed: jobs},
		{URL: "https://jobs.example/2", CompanyName: "Kiwi.com", CompanyID: "Kiwi.com", Location: "cz_pha", Feed: jobs},
		{URL: "https://remote.example/3", CompanyName: "Acme", CompanyID: "Acme", Location: model.LocationRemote, Feed: remote},
	}
}

func TestBuild_PublishesRecordsAndNotifies(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	history := &recordingStore{}
	n := &recordingNotifier{}

	b := &builder{
		source:    &fakeSource{postings: testPostings()},
		writer:    publish.NewWriter(dir, discardLogger()),
		history:   history,
		retention: 30 * 24 * time.Hour,
		notifier:  n,
		logger:    discardLogger(),
		now:       fixedClock(started, started.Add(90*time.Second)),
	}

	if err := b.build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, name := range []string{publish.JobsFile, publish.StatsFile, publish.CompaniesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("artifact %s: %v", name, err)
		}
	}

	if len(history.recorded) != 1 {
		t.Fatalf("recorded %d builds, want 1", len(history.recorded))
	}
	got := history.recorded[0]
	if !got.StartedAt.Equal(started) || got.Duration != 90*time.Second {
		t.Errorf("summary timing = %v / %v", got.StartedAt, got.Duration)
	}
	if got.JobsCount != 3 || got.CompaniesCount != 2 {
		t.Errorf("summary counts = %d jobs, %d companies, want 3 and 2", got.JobsCount, got.CompaniesCount)
	}
	if got.FeedCounts["jobscz"] != 2 || got.FeedCounts["remoteok"] != 1 {
		t.Errorf("FeedCounts = %v", got.FeedCounts)
	}
	if len(history.cleanedUp) != 1 || history.cleanedUp[0] != 30*24*time.Hour {
		t.Errorf("cleanup calls = %v", history.cleanedUp)
	}
	if len(n.notified) != 1 || n.notified[0].JobsCount != 3 {
		t.Errorf("notified = %+v", n.notified)
	}
}

func TestBuild_PipelineFailureWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	history := &recordingStore{}
	n := &recordingNotifier{}

	b := &builder{
		source:   &fakeSource{err: errors.New("feed unreachable")},
		writer:   publish.NewWriter(dir, discardLogger()),
		history:  history,
		notifier: n,
		logger:   discardLogger(),
		now:      time.Now,
	}

	if err := b.build(context.Background()); err == nil {
		t.Fatal("build: expected error")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("output dir exists after failed build: %v", err)
	}
	if len(history.recorded) != 0 || len(n.notified) != 0 {
		t.Errorf("failed build was recorded or announced")
	}
}

func TestBuild_HistoryAndNotifyFailuresAreNotFatal(t *testing.T) {
	b := &builder{
		source:   &fakeSource{postings: testPostings()},
		writer:   publish.NewWriter(t.TempDir(), discardLogger()),
		history:  &recordingStore{err: errors.New("disk full")},
		notifier: &recordingNotifier{err: errors.New("slack down")},
		logger:   discardLogger(),
		now:      time.Now,
	}

	if err := b.build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}
}

func TestBuild_NoRetentionSkipsCleanup(t *testing.T) {
	history := &recordingStore{}
	b := &builder{
		source:   &fakeSource{},
		writer:   publish.NewWriter(t.TempDir(), discardLogger()),
		history:  history,
		notifier: &recordingNotifier{},
		logger:   discardLogger(),
		now:      time.Now,
	}

	if err := b.build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(history.cleanedUp) != 0 {
		t.Errorf("cleanup called with retention 0: %v", history.cleanedUp)
	}
	if len(history.recorded) != 1 || history.recorded[0].JobsCount != 0 {
		t.Errorf("recorded = %+v", history.recorded)
	}
}

func TestSelectFeed(t *testing.T) {
	feeds := []model.Feed{{ID: "jobscz"}, {ID: "remoteok"}}
	if got := selectFeed(feeds, "remoteok"); len(got) != 1 || got[0].ID != "remoteok" {
		t.Errorf("selectFeed(remoteok) = %v", got)
	}
	if got := selectFeed(feeds, "missing"); got != nil {
		t.Errorf("selectFeed(missing) = %v, want nil", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Kiwi.com", 10, "Kiwi.com"},
		{"Česká spořitelna", 6, "Česká…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
