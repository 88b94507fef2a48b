// Package store keeps the history of finished builds.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pyvec/pythoncz/internal/model"
)

// SQLiteStore records build summaries in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// builds table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS builds (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at      INTEGER NOT NULL,
		duration_ms     INTEGER NOT NULL,
		jobs_count      INTEGER NOT NULL,
		companies_count INTEGER NOT NULL,
		feed_counts     TEXT NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating builds table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record appends a finished build.
func (s *SQLiteStore) Record(b model.BuildSummary) error {
	feedCounts, err := json.Marshal(b.FeedCounts)
	if err != nil {
		return fmt.Errorf("encoding feed counts: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO builds (started_at, duration_ms, jobs_count, companies_count, feed_counts)
		VALUES (?, ?, ?, ?, ?)`,
		b.StartedAt.UnixMilli(), b.Duration.Milliseconds(), b.JobsCount, b.CompaniesCount, string(feedCounts),
	)
	if err != nil {
		return fmt.Errorf("recording build started at %s: %w", b.StartedAt.Format(time.RFC3339), err)
	}
	return nil
}

// Recent returns up to limit builds, newest first.
func (s *SQLiteStore) Recent(limit int) ([]model.BuildSummary, error) {
	rows, err := s.db.Query(
		`SELECT started_at, duration_ms, jobs_count, companies_count, feed_counts
		FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent builds: %w", err)
	}
	defer rows.Close()

	var builds []model.BuildSummary
	for rows.Next() {
		var (
			startedMs, durationMs int64
			b                     model.BuildSummary
			feedCounts            string
		)
		if err := rows.Scan(&startedMs, &durationMs, &b.JobsCount, &b.CompaniesCount, &feedCounts); err != nil {
			return nil, fmt.Errorf("scanning build row: %w", err)
		}
		b.StartedAt = time.UnixMilli(startedMs)
		b.Duration = time.Duration(durationMs) * time.Millisecond
		if err := json.Unmarshal([]byte(feedCounts), &b.FeedCounts); err != nil {
			return nil, fmt.Errorf("decoding feed counts: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating builds: %w", err)
	}
	return builds, nil
}

// Cleanup deletes builds that started more than olderThan ago.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	_, err := s.db.Exec("DELETE FROM builds WHERE started_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up builds older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
