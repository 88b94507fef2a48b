package store

import (
	"time"

	"github.com/pyvec/pythoncz/internal/model"
)

// NopStore is used when no history database is configured. It remembers
// nothing.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Record(model.BuildSummary) error { return nil }
func (s *NopStore) Recent(int) ([]model.BuildSummary, error) { return nil, nil }
func (s *NopStore) Cleanup(time.Duration) error { return nil }
