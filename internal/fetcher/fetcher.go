// Package fetcher retrieves job feeds and turns them into posting streams.
// Feeds whose URL contains the %p placeholder are paginated; every other
// feed is fetched once.
package fetcher

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pyvec/pythoncz/internal/adapter"
	"github.com/pyvec/pythoncz/internal/model"
)

const pagePlaceholder = "%p"

// IsPaginated reports whether feedURL contains the page placeholder.
func IsPaginated(feedURL string) bool {
	return strings.Contains(feedURL, pagePlaceholder)
}

// PaginateURL substitutes page into the placeholder of feedURL.
func PaginateURL(feedURL string, page int) string {
	return strings.ReplaceAll(feedURL, pagePlaceholder, strconv.Itoa(page))
}

// SplitByPagination partitions feeds into paginated and single-shot ones,
// keeping their configured order.
func SplitByPagination(feeds []model.Feed) (paginated, single []model.Feed) {
	for _, f := range feeds {
		if IsPaginated(f.FeedURL) {
			paginated = append(paginated, f)
		} else {
			single = append(single, f)
		}
	}
	return paginated, single
}

// Fetcher downloads feed documents and parses them with the feed's adapter.
type Fetcher struct {
	downloader model.Downloader
	registry   *adapter.Registry
	logger     *slog.Logger
}

// New creates a Fetcher.
func New(downloader model.Downloader, registry *adapter.Registry, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		downloader: downloader,
		registry:   registry,
		logger:     logger,
	}
}

// Fetch returns the postings of feed, picking the strategy by its URL.
// Nothing is downloaded until the sequence is iterated; iteration ends with
// the first error.
func (f *Fetcher) Fetch(ctx context.Context, feed model.Feed) iter.Seq2[model.Posting, error] {
	if IsPaginated(feed.FeedURL) {
		return f.FetchPaginated(ctx, feed)
	}
	return f.FetchOnce(ctx, feed)
}

// FetchOnce downloads feed.FeedURL once. Any failure is a *model.FetchError.
func (f *Fetcher) FetchOnce(ctx context.Context, feed model.Feed) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		postings, err := f.fetchPage(ctx, feed.ID, feed.FeedURL)
		if err != nil {
			yield(model.Posting{}, err)
			return
		}
		for _, p := range postings {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// FetchPaginated walks pages 1, 2, ... of feed.FeedURL. It stops without
// error at the first HTTP error status or the first page without postings.
// Any other failure is a *model.FetchError.
func (f *Fetcher) FetchPaginated(ctx context.Context, feed model.Feed) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		for page := 1; ; page++ {
			pageURL := PaginateURL(feed.FeedURL, page)
			postings, err := f.fetchPage(ctx, feed.ID, pageURL)
			if err != nil {
				var httpErr *model.HTTPError
				if errors.As(err, &httpErr) {
					f.logger.Debug("pagination stopped", "url", pageURL, "status", httpErr.StatusCode)
					return
				}
				yield(model.Posting{}, err)
				return
			}
			if len(postings) == 0 {
				f.logger.Debug("pagination stopped", "url", pageURL, "reason", "empty page")
				return
			}
			for _, p := range postings {
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}

func (f *Fetcher) fetchPage(ctx context.Context, feedID, pageURL string) ([]model.Posting, error) {
	parser, err := f.registry.Parser(feedID)
	if err != nil {
		return nil, err
	}

	f.logger.Info("downloading", "url", pageURL)
	body, err := f.downloader.Download(ctx, pageURL)
	if err != nil {
		return nil, &model.FetchError{URL: pageURL, Err: err}
	}

	postings, err := parser.ParsePostings(body, pageURL)
	if err != nil {
		return nil, &model.FetchError{URL: pageURL, Err: err}
	}
	return postings, nil
}
