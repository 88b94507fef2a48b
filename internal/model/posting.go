package model

import (
	"context"
	"encoding/json"
	"time"
)

// Location is the classification outcome of a posting's raw location.
// The zero value means "not yet classified".
type Location string

const (
	LocationUnset      Location = ""
	LocationRemote     Location = "remote"
	LocationOutOfScope Location = "out_of_scope"

	// LocationUnclassified marks a location within scope that pattern matching
	// alone could not resolve. It is serialized as JSON null.
	LocationUnclassified Location = "\x00unclassified"
)

// IsSet reports whether the location has been classified in any way.
func (l Location) IsSet() bool {
	return l != LocationUnset
}

func (l Location) String() string {
	switch l {
	case LocationUnset:
		return "<unset>"
	case LocationUnclassified:
		return "<unclassified>"
	}
	return string(l)
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l == LocationUnclassified || l == LocationUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(l))
}

func (l *Location) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = LocationUnclassified
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = Location(s)
	return nil
}

// FeedRef identifies the configured feed a posting came from.
type FeedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Posting is one job listing as emitted by a source, pre- or post-enrichment.
// Stages never mutate a posting in place; they derive new values.
type Posting struct {
	URL         string   `json:"url"`
	CompanyName string   `json:"company_name"`
	CompanyURL  string   `json:"company_url,omitempty"`
	CompanyID   string   `json:"company_id,omitempty"`
	LocationRaw string   `json:"location_raw"`
	Location    Location `json:"location"`
	Feed        FeedRef  `json:"feed"`
}

// WithFeed returns a copy of p attributed to feed.
func (p Posting) WithFeed(feed FeedRef) Posting {
	p.Feed = feed
	return p
}

// WithLocation returns a copy of p classified as loc. A posting that is
// already classified is returned unchanged: locations never revert.
func (p Posting) WithLocation(loc Location) Posting {
	if p.Location.IsSet() {
		return p
	}
	p.Location = loc
	return p
}

// Resolved returns a copy of p whose unclassified location was settled by
// geocoding. Other locations are left as they are.
func (p Posting) Resolved(loc Location) Posting {
	if p.Location != LocationUnclassified {
		return p
	}
	p.Location = loc
	return p
}

// WithCompanyID returns a copy of p carrying the derived company id.
func (p Posting) WithCompanyID(id string) Posting {
	p.CompanyID = id
	return p
}

// DetailUpdate is what a detail page contributes to a listing.
type DetailUpdate struct {
	LocationRaw string
}

// Refine derives the posting described by a detail page. The detail's raw
// location replaces the listing's and the derived posting is unclassified
// again; an empty update yields p unchanged.
func (p Posting) Refine(u DetailUpdate) Posting {
	if u.LocationRaw == "" {
		return p
	}
	p.LocationRaw = u.LocationRaw
	p.Location = LocationUnset
	return p
}

// Feed is a configured external source of job postings.
type Feed struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	FeedURL string `yaml:"feed_url"` // may contain a %p page placeholder
	URL     string `yaml:"url"`
}

// Ref returns the reference attached to postings from this feed.
func (f Feed) Ref() FeedRef {
	return FeedRef{ID: f.ID, Name: f.Name, URL: f.URL}
}

// Downloader retrieves a raw document. Non-2xx responses are *HTTPError.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// PostingFilter decides whether a posting stays in the pipeline.
type PostingFilter interface {
	Match(p Posting) bool
}

// BuildSummary describes one finished build.
type BuildSummary struct {
	StartedAt      time.Time
	Duration       time.Duration
	JobsCount      int
	CompaniesCount int
	FeedCounts     map[string]int // feed id -> jobs
}

// Notifier announces a finished build.
type Notifier interface {
	Notify(summary BuildSummary) error
}

// BuildStore keeps a history of finished builds.
type BuildStore interface {
	Record(summary BuildSummary) error
	Recent(limit int) ([]BuildSummary, error)
	Cleanup(olderThan time.Duration) error
}
