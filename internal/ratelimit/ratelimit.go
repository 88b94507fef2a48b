// Package ratelimit keeps downloads polite towards each job source.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pyvec/pythoncz/internal/model"
)

// HostLimiter enforces a minimum delay between requests to the same host.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	minDelay time.Duration
}

// NewHostLimiter creates a limiter that enforces minDelay between consecutive
// requests to the same host. A zero minDelay disables limiting.
func NewHostLimiter(minDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
	}
}

// Wait blocks until a request to host is allowed. Returns an error if the
// context is cancelled while waiting.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if err := h.limiter(host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", host, err)
	}
	return nil
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		limit := rate.Inf
		if h.minDelay > 0 {
			limit = rate.Every(h.minDelay)
		}
		l = rate.NewLimiter(limit, 1)
		h.limiters[host] = l
	}
	return l
}

// Downloader is a decorator that waits for the host's limiter before
// delegating to the wrapped Downloader.
type Downloader struct {
	inner   model.Downloader
	limiter *HostLimiter
}

// NewDownloader wraps a Downloader with per-host rate limiting.
func NewDownloader(inner model.Downloader, limiter *HostLimiter) *Downloader {
	return &Downloader{inner: inner, limiter: limiter}
}

func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if err := d.limiter.Wait(ctx, u.Host); err != nil {
		return nil, err
	}
	return d.inner.Download(ctx, rawURL)
}
