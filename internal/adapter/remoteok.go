package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/pyvec/pythoncz/internal/model"
)

const remoteOKCompaniesURL = "https://remoteok.io/remote-companies/"

// remoteOKEntry is one element of the RemoteOK API array. The first element
// is a legal notice without url or company.
type remoteOKEntry struct {
	URL     string `json:"url"`
	Company string `json:"company"`
}

// RemoteOKParser reads the RemoteOK JSON API. Every posting is remote.
// Elements are decoded one by one so a single malformed entry is skipped.
type RemoteOKParser struct{}

func (RemoteOKParser) ParsePostings(body []byte, baseURL string) ([]model.Posting, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, fmt.Errorf("remoteok parse %s: %w", baseURL, err)
	}

	postings := make([]model.Posting, 0, len(elements))
	for _, raw := range elements {
		var e remoteOKEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		if e.URL == "" || e.Company == "" {
			continue
		}
		companyName := normalizeText(e.Company)
		postings = append(postings, model.Posting{
			URL:         normalizeText(e.URL),
			CompanyName: companyName,
			CompanyURL:  remoteOKCompaniesURL + slug.Make(companyName),
			LocationRaw: "remote",
		})
	}
	return postings, nil
}
