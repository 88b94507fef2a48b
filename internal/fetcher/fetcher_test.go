package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/pyvec/pythoncz/internal/adapter"
	"github.com/pyvec/pythoncz/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// lineParser turns every non-empty line of the body into a posting.
type lineParser struct{}

func (lineParser) ParsePostings(body []byte, baseURL string) ([]model.Posting, error) {
	var postings []model.Posting
	for _, line := range strings.Split(string(body), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			postings = append(postings, model.Posting{URL: line, CompanyName: "Acme", LocationRaw: "Praha"})
		}
	}
	return postings, nil
}

// stubDownloader serves canned responses by URL and records every request.
type stubDownloader struct {
	responses map[string]string
	errs      map[string]error
	requested []string
}

func (d *stubDownloader) Download(_ context.Context, url string) ([]byte, error) {
	d.requested = append(d.requested, url)
	if err, ok := d.errs[url]; ok {
		return nil, err
	}
	body, ok := d.responses[url]
	if !ok {
		return nil, &model.HTTPError{StatusCode: http.StatusNotFound}
	}
	return []byte(body), nil
}

func newTestFetcher(d model.Downloader) *Fetcher {
	reg := adapter.NewRegistry()
	reg.Register("lines", lineParser{})
	return New(d, reg, discardLogger())
}

func collect(t *testing.T, seq func(func(model.Posting, error) bool)) ([]string, error) {
	t.Helper()
	var urls []string
	for p, err := range seq {
		if err != nil {
			return urls, err
		}
		urls = append(urls, p.URL)
	}
	return urls, nil
}

func TestIsPaginated(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.jobs.cz/api/export.xml?page=%p", true},
		{"https://remoteok.io/api", false},
		{"https://example.com/%25p", false},
	}
	for _, tt := range tests {
		if got := IsPaginated(tt.url); got != tt.want {
			t.Errorf("IsPaginated(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestPaginateURL(t *testing.T) {
	got := PaginateURL("https://stackoverflow.com/jobs?l=Czech&pg=%p", 3)
	if got != "https://stackoverflow.com/jobs?l=Czech&pg=3" {
		t.Errorf("unexpected url %q", got)
	}
}

func TestSplitByPagination(t *testing.T) {
	feeds := []model.Feed{
		{ID: "a", FeedURL: "https://a.example/%p"},
		{ID: "b", FeedURL: "https://b.example/"},
		{ID: "c", FeedURL: "https://c.example/?page=%p"},
		{ID: "d", FeedURL: "https://d.example/"},
	}
	paginated, single := SplitByPagination(feeds)

	var pIDs, sIDs []string
	for _, f := range paginated {
		pIDs = append(pIDs, f.ID)
	}
	for _, f := range single {
		sIDs = append(sIDs, f.ID)
	}
	if !reflect.DeepEqual(pIDs, []string{"a", "c"}) {
		t.Errorf("paginated = %v", pIDs)
	}
	if !reflect.DeepEqual(sIDs, []string{"b", "d"}) {
		t.Errorf("single = %v", sIDs)
	}
}

func TestFetchOnce_Success(t *testing.T) {
	d := &stubDownloader{responses: map[string]string{
		"https://feed.example/": "https://feed.example/1\nhttps://feed.example/2\n",
	}}
	f := newTestFetcher(d)

	urls, err := collect(t, f.Fetch(context.Background(), model.Feed{ID: "lines", FeedURL: "https://feed.example/"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"https://feed.example/1", "https://feed.example/2"}) {
		t.Errorf("unexpected postings %v", urls)
	}
}

func TestFetchOnce_HTTPErrorIsFatal(t *testing.T) {
	d := &stubDownloader{}
	f := newTestFetcher(d)

	_, err := collect(t, f.Fetch(context.Background(), model.Feed{ID: "lines", FeedURL: "https://feed.example/"}))
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.URL != "https://feed.example/" {
		t.Errorf("expected error to name the feed url, got %q", fetchErr.URL)
	}
	if !strings.Contains(err.Error(), "could not get jobs feed from https://feed.example/") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestFetchOnce_Lazy(t *testing.T) {
	d := &stubDownloader{}
	f := newTestFetcher(d)

	_ = f.Fetch(context.Background(), model.Feed{ID: "lines", FeedURL: "https://feed.example/"})
	if len(d.requested) != 0 {
		t.Errorf("expected no download before iteration, got %v", d.requested)
	}
}

func TestFetchPaginated_StopsOnHTTPError(t *testing.T) {
	d := &stubDownloader{responses: map[string]string{
		"https://feed.example/?page=1": "https://feed.example/1",
		"https://feed.example/?page=2": "https://feed.example/2",
	}}
	f := newTestFetcher(d)

	urls, err := collect(t, f.Fetch(context.Background(), model.Feed{ID: "lines", FeedURL: "https://feed.example/?page=%p"}))
	if err != nil {
		t.Fatalf("HTTP error should end pagination without failing, got %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("expected 2 postings, got %v", urls)
	}
	want := []string{
		"https://feed.example/?page=1",
		"https://feed.example/?page=2",
		"https://feed.example/?page=3",
	}
	if !reflect.DeepEqual(d.requested, want) {
		t.Errorf("requested %v, want %v", d.requested, want)
	}
}

func TestFetchPaginated_StopsOnEmptyPage(t *testing.T) {
	d := &stubDownloader{responses: map[string]string{
		"https://feed.example/1": "https://feed.example/a\nhttps://feed.example/b",
		"https://feed.example/2": "\n",
		"https://feed.example/3": "https://feed.example/never",
	}}
	f := newTestFetcher(d)

	urls, err := collect(t, f.Fetch(context.Background(), model.Feed{ID: "lines", FeedURL: "https://feed.example/%p"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"https://feed.example/a", "https://feed.example/b"}) {
		t.Errorf("unexpected postings %v", urls)
	}
	if len(d.requested) != 2 {
		t.Errorf("expected 2 requests, got %v", d.requested)
	}
}

func TestFetchPaginated_TransportErrorIsFatal(t *testing.T) {
	d := &stubDownloader{
		responses: map[string]string{"https://feed.example/1": "https://feed.example/a"},
		errs:      map[string]error{"https://feed.example/2": errors.New("connection reset")},
	}
	f := newTestFetcher(d)

	urls, err := collect(t, f.Fetch(context.Background(), model.Feed{ID: "lines", FeedURL: "https://feed.example/%p"}))
	var fetchErr *model.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.URL != "https://feed.example/2" {
		t.Fatalf("expected FetchError for page 2, got %v", err)
	}
	if len(urls) != 1 {
		t.Errorf("expected postings of page 1 before the failure, got %v", urls)
	}
}

func TestFetchPaginated_ConsumerStopsEarly(t *testing.T) {
	d := &stubDownloader{responses: map[string]string{
		"https://feed.example/1": "https://feed.example/a\nhttps://feed.example/b",
		"https://feed.example/2": "https://feed.example/c",
	}}
	f := newTestFetcher(d)

	for range f.Fetch(context.Background(), model.Feed{ID: "lines", FeedURL: "https://feed.example/%p"}) {
		break
	}
	if len(d.requested) != 1 {
		t.Errorf("expected a single request, got %v", d.requested)
	}
}

func TestFetch_UnknownAdapter(t *testing.T) {
	f := newTestFetcher(&stubDownloader{})

	_, err := collect(t, f.Fetch(context.Background(), model.Feed{ID: "monster", FeedURL: "https://monster.example/"}))
	if err == nil || !strings.Contains(err.Error(), "monster") {
		t.Fatalf("expected unknown adapter error, got %v", err)
	}
}

func TestFetch_RemoteOKOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"legal":"terms"},{"url":"https://remoteok.io/l/1","company":"Doist"}]`)
	}))
	defer srv.Close()

	f := New(NewHTTPDownloader(srv.Client()), adapter.NewRegistry(), discardLogger())
	var postings []model.Posting
	for p, err := range f.Fetch(context.Background(), model.Feed{ID: adapter.RemoteOK, FeedURL: srv.URL}) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		postings = append(postings, p)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
	if postings[0].CompanyName != "Doist" || postings[0].LocationRaw != "remote" {
		t.Errorf("unexpected posting %+v", postings[0])
	}
}
