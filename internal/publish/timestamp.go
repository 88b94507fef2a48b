package publish

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a time encoded as ISO 8601 with an explicit UTC offset,
// e.g. "2024-03-01T09:30:00+01:00".
type Timestamp struct {
	time.Time
}

const timestampLayout = "2006-01-02T15:04:05-07:00"

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}
