// Package pipeline turns configured feeds into the finished list of job
// postings. Stages run in a fixed order with cheap filters ahead of network
// calls, and everything is pulled lazily one posting at a time.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/pyvec/pythoncz/internal/adapter"
	"github.com/pyvec/pythoncz/internal/fetcher"
	"github.com/pyvec/pythoncz/internal/filter"
	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
)

// Pipeline owns every stage between the feeds and the final posting list.
type Pipeline struct {
	fetcher    *fetcher.Fetcher
	downloader model.Downloader
	registry   *adapter.Registry
	filter     model.PostingFilter
	geocode    geo.GeocodeFunc
	logger     *slog.Logger
}

// New creates a pipeline. downloader is used for detail pages; geocode is
// consulted only for postings pattern matching could not classify.
func New(
	f *fetcher.Fetcher,
	downloader model.Downloader,
	registry *adapter.Registry,
	relevance model.PostingFilter,
	geocode geo.GeocodeFunc,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:    f,
		downloader: downloader,
		registry:   registry,
		filter:     relevance,
		geocode:    geocode,
		logger:     logger,
	}
}

// Run pulls every posting through all stages. It fails on the first feed
// that cannot be fetched or location that cannot be geocoded; nothing is
// returned in that case.
func (p *Pipeline) Run(ctx context.Context, feeds []model.Feed) ([]model.Posting, error) {
	var postings []model.Posting
	for posting, err := range p.Stream(ctx, feeds) {
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}
	return postings, nil
}

// Stream returns the lazy sequence behind Run.
func (p *Pipeline) Stream(ctx context.Context, feeds []model.Feed) iter.Seq2[model.Posting, error] {
	seq := p.fetchAll(ctx, feeds)
	seq = p.keepRelevant(seq)
	seq = mapPostings(seq, classify)
	seq = p.keepRelevant(seq)
	seq = p.withDetails(ctx, seq)
	seq = mapPostings(seq, classify)
	seq = p.keepRelevant(seq)
	seq = p.resolve(ctx, seq)
	seq = p.keepRelevant(seq)
	return mapPostings(seq, assignCompanyID)
}

// fetchAll chains the feeds, paginated ones first, and attributes every
// posting to its feed.
func (p *Pipeline) fetchAll(ctx context.Context, feeds []model.Feed) iter.Seq2[model.Posting, error] {
	paginated, single := fetcher.SplitByPagination(feeds)
	ordered := append(paginated, single...)

	return func(yield func(model.Posting, error) bool) {
		for _, feed := range ordered {
			ref := feed.Ref()
			for posting, err := range p.fetcher.Fetch(ctx, feed) {
				if err != nil {
					yield(model.Posting{}, err)
					return
				}
				if !yield(posting.WithFeed(ref), nil) {
					return
				}
			}
		}
	}
}

func (p *Pipeline) keepRelevant(seq iter.Seq2[model.Posting, error]) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		for posting, err := range seq {
			if err != nil {
				yield(posting, err)
				return
			}
			if !p.filter.Match(posting) {
				p.logger.Info("skipping posting",
					"url", posting.URL,
					"company", posting.CompanyName,
					"location", posting.Location.String(),
				)
				continue
			}
			if !yield(posting, nil) {
				return
			}
		}
	}
}

// withDetails replaces each posting by the postings its detail page
// describes. Expired or unreachable detail pages are common, so a failed
// lookup keeps the listing as it is.
func (p *Pipeline) withDetails(ctx context.Context, seq iter.Seq2[model.Posting, error]) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		for posting, err := range seq {
			if err != nil {
				yield(posting, err)
				return
			}
			for _, derived := range p.details(ctx, posting) {
				if !yield(derived, nil) {
					return
				}
			}
		}
	}
}

func (p *Pipeline) details(ctx context.Context, posting model.Posting) []model.Posting {
	dp, ok := p.registry.DetailParser(posting.Feed.ID)
	if !ok {
		return []model.Posting{posting}
	}

	p.logger.Info("downloading", "url", posting.URL)
	body, err := p.downloader.Download(ctx, posting.URL)
	if err != nil {
		p.logger.Warn("could not get job details, keeping listing",
			"url", posting.URL,
			"error", err,
		)
		return []model.Posting{posting}
	}

	updates, err := dp.ParseDetail(body, posting.URL)
	if err != nil {
		p.logger.Warn("could not parse job details, keeping listing",
			"url", posting.URL,
			"error", err,
		)
		return []model.Posting{posting}
	}
	if len(updates) == 0 {
		return []model.Posting{posting}
	}

	derived := make([]model.Posting, 0, len(updates))
	for _, u := range updates {
		derived = append(derived, posting.Refine(u))
	}
	return derived
}

// resolve geocodes postings that are still unclassified. A geocoding
// failure ends the whole run.
func (p *Pipeline) resolve(ctx context.Context, seq iter.Seq2[model.Posting, error]) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		for posting, err := range seq {
			if err != nil {
				yield(posting, err)
				return
			}
			if posting.Location == model.LocationUnclassified {
				loc, err := geo.Resolve(ctx, posting.LocationRaw, p.geocode)
				if err != nil {
					yield(posting, fmt.Errorf("geocoding %q of %s: %w", posting.LocationRaw, posting.URL, err))
					return
				}
				p.logger.Debug("geocoded location",
					"url", posting.URL,
					"location_raw", posting.LocationRaw,
					"location", loc.String(),
				)
				posting = posting.Resolved(loc)
			}
			if !yield(posting, nil) {
				return
			}
		}
	}
}

func classify(posting model.Posting) model.Posting {
	if posting.Location.IsSet() {
		return posting
	}
	return posting.WithLocation(geo.Parse(posting.LocationRaw))
}

func assignCompanyID(posting model.Posting) model.Posting {
	return posting.WithCompanyID(filter.CompanyID(posting.CompanyName))
}

func mapPostings(seq iter.Seq2[model.Posting, error], fn func(model.Posting) model.Posting) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		for posting, err := range seq {
			if err != nil {
				yield(posting, err)
				return
			}
			if !yield(fn(posting), nil) {
				return
			}
		}
	}
}
