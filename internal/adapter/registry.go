// Package adapter turns raw documents from the supported job sources into
// posting stubs. Every source has its own document shape; the registry maps
// a configured feed id onto the parser for that shape.
package adapter

import (
	"fmt"
	"sort"

	"github.com/pyvec/pythoncz/internal/model"
)

// Feed ids of the supported sources.
const (
	JobsCz        = "jobscz"
	StartupJobsCz = "startupjobscz"
	StackOverflow = "stackoverflowcom"
	PythonOrg     = "pythonorg"
	RemoteOK      = "remoteok"
)

// Parser turns a listing document fetched from baseURL into posting stubs.
// Records missing a required element are skipped; an error means the whole
// document could not be read.
type Parser interface {
	ParsePostings(body []byte, baseURL string) ([]model.Posting, error)
}

// DetailParser turns a posting's own page into zero or more updates. One
// posting may fan out into several when its page lists several locations.
type DetailParser interface {
	ParseDetail(body []byte, baseURL string) ([]model.DetailUpdate, error)
}

// Registry looks up parsers by feed id.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with all supported sources.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[string]Parser{
			JobsCz:        JobsCzParser{},
			StartupJobsCz: StartupJobsCzParser{},
			StackOverflow: StackOverflowParser{},
			PythonOrg:     PythonOrgParser{},
			RemoteOK:      RemoteOKParser{},
		},
	}
}

// Register adds or replaces the parser for feedID.
func (r *Registry) Register(feedID string, p Parser) {
	r.parsers[feedID] = p
}

// Parser returns the listing parser for feedID.
func (r *Registry) Parser(feedID string) (Parser, error) {
	p, ok := r.parsers[feedID]
	if !ok {
		return nil, fmt.Errorf("there is no jobs adapter for %q", feedID)
	}
	return p, nil
}

// DetailParser returns the detail parser for feedID. Sources without detail
// pages report false: detail lookup is simply not supported for them.
func (r *Registry) DetailParser(feedID string) (DetailParser, bool) {
	p, ok := r.parsers[feedID]
	if !ok {
		return nil, false
	}
	dp, ok := p.(DetailParser)
	return dp, ok
}

// IDs returns the registered feed ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.parsers))
	for id := range r.parsers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
