package adapter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"

	"github.com/pyvec/pythoncz/internal/model"
)

const (
	stackOverflowCompaniesURL = "https://stackoverflow.com/jobs/companies/"
	stackOverflowMaxWeeks     = 3
)

// StackOverflowParser reads a Stack Overflow Jobs search result page.
type StackOverflowParser struct{}

func (StackOverflowParser) ParsePostings(body []byte, baseURL string) ([]model.Posting, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("stackoverflowcom parse %s: %w", baseURL, err)
	}

	var postings []model.Posting
	doc.Find(".-job-summary").Each(func(_ int, s *goquery.Selection) {
		if publishedWeeksAgo(normalizeText(s.Find(".-title span").Last().Text())) > stackOverflowMaxWeeks {
			return
		}

		href, ok := s.Find(".-title a").First().Attr("href")
		if !ok {
			return
		}

		details := s.Find(".-company").First().Children()
		if details.Length() == 0 {
			return
		}
		companyName := normalizeText(leadingText(details.First()))
		if companyName == "" {
			return
		}

		location := "remote"
		if !isStackOverflowRemote(s) {
			location = normalizeText(details.Last().Text())
		}

		postings = append(postings, model.Posting{
			URL:         absoluteURL(baseURL, href),
			CompanyName: companyName,
			CompanyURL:  stackOverflowCompaniesURL + slug.Make(companyName),
			LocationRaw: location,
		})
	})
	return postings, nil
}

func isStackOverflowRemote(s *goquery.Selection) bool {
	remote := s.Find(".-remote").First()
	if remote.Length() == 0 {
		return false
	}
	return !strings.Contains(strings.ToLower(remote.Text()), "on-site")
}

// publishedWeeksAgo reads markers like "4w ago". Anything else is 0.
func publishedWeeksAgo(text string) int {
	i := strings.Index(text, "w ago")
	if i <= 0 {
		return 0
	}
	weeks, err := strconv.Atoi(strings.TrimSpace(text[:i]))
	if err != nil {
		return 0
	}
	return weeks
}
