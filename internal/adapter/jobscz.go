package adapter

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"

	"github.com/pyvec/pythoncz/internal/model"
)

// JobsCzParser reads the Jobs.cz XML export. A <position> may list several
// <locality> elements; each distinct locality becomes its own posting.
type JobsCzParser struct{}

func (JobsCzParser) ParsePostings(body []byte, baseURL string) ([]model.Posting, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("jobscz parse %s: %w", baseURL, err)
	}

	var postings []model.Posting
	for _, position := range xmlquery.Find(doc, "//position") {
		urlNode := position.SelectElement("url")
		companyNode := position.SelectElement("companyName")
		if urlNode == nil || companyNode == nil {
			continue
		}
		url := normalizeText(urlNode.InnerText())
		companyName := normalizeText(companyNode.InnerText())

		seen := make(map[string]bool)
		for _, l := range xmlquery.Find(position, ".//locality") {
			locality := normalizeText(l.InnerText())
			if seen[locality] {
				continue
			}
			seen[locality] = true

			postings = append(postings, model.Posting{
				URL:         url,
				CompanyName: companyName,
				LocationRaw: fmt.Sprintf("%s, %s, Česko", companyName, locality),
			})
		}
	}
	return postings, nil
}

// ParseDetail reads the address from the map link on a posting's page.
// Pages without one yield a single empty update.
func (JobsCzParser) ParseDetail(body []byte, baseURL string) ([]model.DetailUpdate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("jobscz detail parse %s: %w", baseURL, err)
	}

	link := doc.Find(`a[href*="mapy.cz"]`).First()
	if link.Length() == 0 {
		return []model.DetailUpdate{{}}, nil
	}
	location := normalizeText(link.Text())
	return []model.DetailUpdate{{LocationRaw: location + ", Česko"}}, nil
}
