package aggregate

import (
	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
)

// FeedStats counts the jobs contributed by one feed.
type FeedStats struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	JobsCount int    `json:"jobs_count"`
}

// Stats summarizes the job board.
type Stats struct {
	JobsCount              int         `json:"jobs_count"`
	CompaniesCount         int         `json:"companies_count"`
	RemoteJobsCount        int         `json:"remote_jobs_count"`
	RemoteCompaniesCount   int         `json:"remote_companies_count"`
	CzechJobsCount         int         `json:"czech_jobs_count"`
	CzechCompaniesCount    int         `json:"czech_companies_count"`
	NonCzechJobsCount      int         `json:"non_czech_jobs_count"`
	NonCzechCompaniesCount int         `json:"non_czech_companies_count"`
	Feeds                  []FeedStats `json:"feeds"`
}

// ComputeStats counts jobs and distinct companies overall, remote, in
// Czechia and in the neighbouring countries. Feeds are listed in the order
// their first posting appears.
func ComputeStats(postings []model.Posting) Stats {
	var (
		s         Stats
		companies = make(map[string]bool)
		remote    = make(map[string]bool)
		czech     = make(map[string]bool)
		nonCzech  = make(map[string]bool)
		feedIndex = make(map[string]int)
	)

	for _, p := range postings {
		key := companyKey(p)
		companies[key] = true

		switch {
		case p.Location == model.LocationRemote:
			s.RemoteJobsCount++
			remote[key] = true
		case geo.IsCzech(p.Location):
			s.CzechJobsCount++
			czech[key] = true
		case geo.IsCountry(p.Location):
			s.NonCzechJobsCount++
			nonCzech[key] = true
		}

		i, ok := feedIndex[p.Feed.ID]
		if !ok {
			i = len(s.Feeds)
			feedIndex[p.Feed.ID] = i
			s.Feeds = append(s.Feeds, FeedStats{ID: p.Feed.ID, Name: p.Feed.Name, URL: p.Feed.URL})
		}
		s.Feeds[i].JobsCount++
	}

	s.JobsCount = len(postings)
	s.CompaniesCount = len(companies)
	s.RemoteCompaniesCount = len(remote)
	s.CzechCompaniesCount = len(czech)
	s.NonCzechCompaniesCount = len(nonCzech)
	return s
}
