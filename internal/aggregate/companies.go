// Package aggregate derives the company directory and summary statistics
// from the finished posting list. Everything here is a pure function of
// its input.
package aggregate

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
)

// Company is one employer within a location group.
type Company struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	URL     string   `json:"url,omitempty"`
	JobURLs []string `json:"job_urls"`
}

// LocationGroup lists the companies hiring in one location.
type LocationGroup struct {
	Location  model.Location `json:"location"`
	Label     geo.Label      `json:"label"`
	Companies []Company      `json:"companies"`
}

// CompaniesByLocation groups postings by location and company. Groups come
// in display order: remote, the whole of Czechia, Czech regions in taxonomy
// order, then neighbouring countries. Companies are sorted by name using
// Czech collation. Unset and out-of-scope postings are ignored.
func CompaniesByLocation(postings []model.Posting) []LocationGroup {
	byLocation := make(map[model.Location]map[string]*companyAcc)
	for _, p := range postings {
		if !p.Location.IsSet() || p.Location == model.LocationOutOfScope {
			continue
		}
		companies, ok := byLocation[p.Location]
		if !ok {
			companies = make(map[string]*companyAcc)
			byLocation[p.Location] = companies
		}
		key := companyKey(p)
		acc, ok := companies[key]
		if !ok {
			acc = &companyAcc{
				company: Company{ID: key, Name: p.CompanyName, URL: p.CompanyURL},
				urls:    make(map[string]bool),
			}
			companies[key] = acc
		}
		if acc.company.URL == "" {
			acc.company.URL = p.CompanyURL
		}
		acc.urls[p.URL] = true
	}

	col := collate.New(language.Czech, collate.IgnoreCase)
	var groups []LocationGroup
	for _, loc := range displayOrder() {
		companies, ok := byLocation[loc]
		if !ok {
			continue
		}
		group := LocationGroup{Location: loc, Label: geo.LabelOf(loc)}
		for _, acc := range companies {
			group.Companies = append(group.Companies, acc.finish())
		}
		sort.SliceStable(group.Companies, func(i, j int) bool {
			a, b := group.Companies[i], group.Companies[j]
			if c := col.CompareString(a.Name, b.Name); c != 0 {
				return c < 0
			}
			return a.ID < b.ID
		})
		groups = append(groups, group)
	}
	return groups
}

type companyAcc struct {
	company Company
	urls    map[string]bool
}

func (a *companyAcc) finish() Company {
	c := a.company
	c.JobURLs = make([]string, 0, len(a.urls))
	for u := range a.urls {
		c.JobURLs = append(c.JobURLs, u)
	}
	sort.Strings(c.JobURLs)
	return c
}

// displayOrder lists the groups of the directory in the order they are shown.
func displayOrder() []model.Location {
	order := []model.Location{model.LocationRemote, model.LocationUnclassified}
	var countries []model.Location
	for _, code := range geo.Codes() {
		switch {
		case geo.IsCzech(code):
			order = append(order, code)
		case geo.IsCountry(code):
			countries = append(countries, code)
		}
	}
	return append(order, countries...)
}

// companyKey groups postings of one company. The id is only assigned by the
// last pipeline stage, so the raw name stands in when it is missing.
func companyKey(p model.Posting) string {
	if p.CompanyID != "" {
		return p.CompanyID
	}
	return p.CompanyName
}
