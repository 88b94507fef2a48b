// Package filter decides which postings belong on the job board.
package filter

import (
	"regexp"

	"github.com/pyvec/pythoncz/internal/model"
)

// RelevanceFilter drops postings of blocked agencies and postings located
// out of scope. Unclassified postings are relevant: they are still in scope.
type RelevanceFilter struct {
	agencies map[string]bool
}

// NewRelevanceFilter returns a filter blocking the given company names.
// Names must match exactly.
func NewRelevanceFilter(agencies []string) *RelevanceFilter {
	blocked := make(map[string]bool, len(agencies))
	for _, a := range agencies {
		blocked[a] = true
	}
	return &RelevanceFilter{agencies: blocked}
}

// Match reports whether p is relevant.
func (f *RelevanceFilter) Match(p model.Posting) bool {
	return !f.agencies[p.CompanyName] && p.Location != model.LocationOutOfScope
}

var legalFormRe = regexp.MustCompile(`,?\s+(?:AG|GmbH|SE|Ltd\.?|ltd\.?|Inc\.?|inc\.?|s\.r\.o\.|a\.s\.)$`)

// CompanyID strips a trailing legal form such as "s.r.o." or "GmbH" from a
// company name so that variants of one company group together.
func CompanyID(companyName string) string {
	return legalFormRe.ReplaceAllString(companyName, "")
}
