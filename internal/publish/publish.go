// Package publish writes the job board artifacts consumed by the site.
package publish

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pyvec/pythoncz/internal/aggregate"
	"github.com/pyvec/pythoncz/internal/model"
)

// Artifact file names.
const (
	JobsFile      = "jobs_data.json"
	StatsFile     = "stats_data.json"
	CompaniesFile = "companies_data.json"
)

// StatsDocument is the content of StatsFile.
type StatsDocument struct {
	GeneratedAt Timestamp `json:"generated_at"`
	aggregate.Stats
}

// CompaniesDocument is the content of CompaniesFile.
type CompaniesDocument struct {
	GeneratedAt Timestamp                 `json:"generated_at"`
	Groups      []aggregate.LocationGroup `json:"groups"`
}

// Writer publishes the artifacts into a directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter returns a writer for dir. The directory is created on first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Publish writes the postings and their aggregates. Every file is first
// written next to its destination and renamed into place only once all of
// them were encoded and written; an encoding or write failure leaves the
// previous artifacts intact.
func (w *Writer) Publish(postings []model.Posting, generatedAt time.Time) error {
	if postings == nil {
		postings = []model.Posting{}
	}
	at := Timestamp{generatedAt}
	docs := []struct {
		name string
		v    any
	}{
		{JobsFile, postings},
		{StatsFile, StatsDocument{GeneratedAt: at, Stats: aggregate.ComputeStats(postings)}},
		{CompaniesFile, CompaniesDocument{GeneratedAt: at, Groups: aggregate.CompaniesByLocation(postings)}},
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var staged []string
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, d := range docs {
		tmp, err := w.stage(d.name, d.v)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, d := range docs {
		dest := filepath.Join(w.dir, d.name)
		if err := os.Rename(staged[i], dest); err != nil {
			cleanup()
			return fmt.Errorf("replacing %s: %w", dest, err)
		}
		w.logger.Info("wrote artifact", "path", dest)
	}
	return nil
}

// stage encodes v into a temporary file in the output directory and returns
// its path.
func (w *Writer) stage(name string, v any) (string, error) {
	data, err := Encode(v)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}

	f, err := os.CreateTemp(w.dir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Name(), nil
}

// Encode renders v as indented JSON without escaping non-ASCII or HTML
// characters.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load decodes a previously published artifact.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
