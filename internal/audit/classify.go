package audit

import (
	"sort"

	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
)

// Verdict explains what the pipeline would do with a posting.
type Verdict string

const (
	VerdictKept         Verdict = "kept"
	VerdictNeedsGeocode Verdict = "needs geocoding"
	VerdictAgency       Verdict = "dropped: agency"
	VerdictOutOfScope   Verdict = "dropped: out of scope"
)

// Entry is one posting as the audit shows it.
type Entry struct {
	Posting model.Posting
	Verdict Verdict
}

// Classify runs the offline part of the pipeline over raw listings: pattern
// matching and the relevance filter. It returns every posting and the subset
// the pipeline would keep, both sorted by company name.
func Classify(postings []model.Posting, relevance model.PostingFilter) (all, kept []Entry) {
	for _, p := range postings {
		if !relevance.Match(p) {
			all = append(all, Entry{Posting: p, Verdict: VerdictAgency})
			continue
		}
		p = p.WithLocation(geo.Parse(p.LocationRaw))
		e := Entry{Posting: p, Verdict: verdictOf(p, relevance)}
		all = append(all, e)
		if e.Verdict != VerdictOutOfScope {
			kept = append(kept, e)
		}
	}
	sortEntries(all)
	sortEntries(kept)
	return all, kept
}

func verdictOf(p model.Posting, relevance model.PostingFilter) Verdict {
	switch {
	case !relevance.Match(p):
		return VerdictOutOfScope
	case p.Location == model.LocationUnclassified:
		return VerdictNeedsGeocode
	default:
		return VerdictKept
	}
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Posting.CompanyName < entries[j].Posting.CompanyName
	})
}
