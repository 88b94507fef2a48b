package store

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pyvec/pythoncz/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func summary(startedAt time.Time, jobs int) model.BuildSummary {
	return model.BuildSummary{
		StartedAt:      startedAt,
		Duration:       1500 * time.Millisecond,
		JobsCount:      jobs,
		CompaniesCount: jobs / 2,
		FeedCounts:     map[string]int{"jobscz": jobs - 1, "remoteok": 1},
	}
}

func TestRecordThenRecent(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	if err := s.Record(summary(started, 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	builds, err := s.Recent(5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(builds) != 1 {
		t.Fatalf("expected 1 build, got %d", len(builds))
	}
	b := builds[0]
	if !b.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", b.StartedAt, started)
	}
	if b.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", b.Duration)
	}
	if b.JobsCount != 10 || b.CompaniesCount != 5 {
		t.Errorf("unexpected counts %+v", b)
	}
	if !reflect.DeepEqual(b.FeedCounts, map[string]int{"jobscz": 9, "remoteok": 1}) {
		t.Errorf("FeedCounts = %v", b.FeedCounts)
	}
}

func TestRecentNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if err := s.Record(summary(base.Add(time.Duration(i)*time.Hour), 10+i)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	builds, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(builds) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(builds))
	}
	if builds[0].JobsCount != 13 || builds[1].JobsCount != 12 {
		t.Errorf("expected newest first, got %d then %d", builds[0].JobsCount, builds[1].JobsCount)
	}
}

func TestRecentEmpty(t *testing.T) {
	s := newTestStore(t)

	builds, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(builds) != 0 {
		t.Errorf("expected no builds, got %d", len(builds))
	}
}

func TestCleanupRemovesOldBuilds(t *testing.T) {
	s := newTestStore(t)

	if err := s.Record(summary(time.Now().Add(-48*time.Hour), 10)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(summary(time.Now(), 20)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := s.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	builds, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(builds) != 1 || builds[0].JobsCount != 20 {
		t.Errorf("expected only the recent build, got %+v", builds)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Record(summary(time.Now(), 7)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s.Close()

	builds, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(builds) != 1 || builds[0].JobsCount != 7 {
		t.Errorf("expected persisted build, got %+v", builds)
	}
}

func TestNopStore(t *testing.T) {
	var s model.BuildStore = NewNopStore()
	if err := s.Record(summary(time.Now(), 1)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	builds, err := s.Recent(10)
	if err != nil || builds != nil {
		t.Errorf("expected nothing remembered, got %v, %v", builds, err)
	}
}
