// Package retry retries transient download failures with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/pyvec/pythoncz/internal/model"
)

// Downloader is a decorator that retries transient failures with exponential
// backoff and jitter before giving up on the wrapped Downloader.
type Downloader struct {
	inner      model.Downloader
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewDownloader wraps a Downloader with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewDownloader(inner model.Downloader, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Download fetches url, retrying transient failures. Any other HTTP status,
// 404 and 410 in particular, is returned after a single attempt because
// pagination treats it as the end of a feed.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		body, err := d.inner.Download(ctx, url)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		if attempt == d.maxRetries {
			return nil, fmt.Errorf("giving up on %s after %d attempts: %w", url, attempt+1, err)
		}

		delay := d.backoffDelay(attempt+1, err)
		d.logger.Warn("retrying after transient error",
			"url", url,
			"attempt", attempt+1,
			"max_retries", d.maxRetries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After duration sent with the error takes precedence.
func (d *Downloader) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := d.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// retryableStatus lists the HTTP statuses that signal a transient failure.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooEarly:            true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// isRetryable reports whether err is a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return retryableStatus[httpErr.StatusCode]
	}

	// Network, DNS and similar.
	return true
}
