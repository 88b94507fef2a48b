package adapter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pyvec/pythoncz/internal/model"
)

// PythonOrgParser reads a python.org job board listing page. Listings under
// the /telecommute/ path are remote by definition.
type PythonOrgParser struct{}

func (PythonOrgParser) ParsePostings(body []byte, baseURL string) ([]model.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pythonorg parse %s: %w", baseURL, err)
	}
	telecommute := strings.Contains(baseURL, "/telecommute/")

	var postings []model.Posting
	doc.Find(".listing-company").Each(func(_ int, s *goquery.Selection) {
		companyName := normalizeText(trailingText(s.Find(".listing-company-name").First()))
		href, ok := s.Find(".listing-company-name a").First().Attr("href")
		if companyName == "" || !ok {
			return
		}

		location := "remote"
		if !telecommute {
			link := s.Find(".listing-location a").First()
			if link.Length() == 0 {
				return
			}
			location = normalizeText(link.Text())
		}

		postings = append(postings, model.Posting{
			URL:         absoluteURL(baseURL, href),
			CompanyName: companyName,
			LocationRaw: location,
		})
	})
	return postings, nil
}
