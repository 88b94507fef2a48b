package adapter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"

	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
)

// StartupJobsCzParser reads the StartupJobs.cz XML export. The export has no
// usable location, so every offer starts as "Česko" and the detail page
// supplies the real one.
type StartupJobsCzParser struct{}

func (StartupJobsCzParser) ParsePostings(body []byte, baseURL string) ([]model.Posting, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("startupjobscz parse %s: %w", baseURL, err)
	}

	var postings []model.Posting
	for _, offer := range xmlquery.Find(doc, "//offer") {
		urlNode := offer.SelectElement("url")
		startupNode := offer.SelectElement("startup")
		if urlNode == nil || startupNode == nil {
			continue
		}
		var companyURL string
		if n := offer.SelectElement("startupURL"); n != nil {
			companyURL = normalizeText(n.InnerText())
		}

		postings = append(postings, model.Posting{
			URL:         normalizeText(urlNode.InnerText()),
			CompanyName: normalizeText(startupNode.InnerText()),
			CompanyURL:  companyURL,
			LocationRaw: "Česko",
		})
	}
	return postings, nil
}

// ParseDetail reads the location and job type boxes of an offer page.
// Remote offers yield a single remote update, others one update per city.
func (StartupJobsCzParser) ParseDetail(body []byte, baseURL string) ([]model.DetailUpdate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("startupjobscz detail parse %s: %w", baseURL, err)
	}

	boxes := doc.Find("#offer-detail .details").First().Children()
	if boxes.Length() < 3 {
		return []model.DetailUpdate{{}}, nil
	}

	jobType := boxes.Eq(2).Text()
	if geo.Parse(jobType) == model.LocationRemote {
		return []model.DetailUpdate{{LocationRaw: "remote"}}, nil
	}

	var updates []model.DetailUpdate
	for _, loc := range splitStartupJobsCzLocation(normalizeText(boxes.Eq(0).Text())) {
		updates = append(updates, model.DetailUpdate{LocationRaw: loc})
	}
	return updates, nil
}

// splitStartupJobsCzLocation turns the free-form location box into one
// "<city>, Česko" string per city. Seen in the wild:
//
//	Czechia
//	Praha, Praha 3
//	Liberec, Praha, Praha 2
//	Česká republika, Praha 4
//	Prague 6
func splitStartupJobsCzLocation(text string) []string {
	seen := make(map[string]bool)
	var locations []string
	for _, part := range strings.Split(text, ",") {
		loc := normalizeText(part)
		if loc == "" {
			continue
		}
		lower := strings.ToLower(loc)
		if strings.HasPrefix(lower, "praha") || strings.HasPrefix(lower, "prague") {
			loc, lower = "Praha", "praha"
		}
		if lower == "czechia" || lower == "česká republika" || seen[loc] {
			continue
		}
		seen[loc] = true
		locations = append(locations, loc+", Česko")
	}
	if len(locations) == 0 {
		return []string{"Česká republika"}
	}
	return locations
}
