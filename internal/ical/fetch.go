package ical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a fetched feed body stays fresh. Feeds change
	// rarely and the kiosk re-renders often, so a short window keeps the
	// display responsive without hammering feed hosts.
	DefaultTTL = 5 * time.Minute

	fetchTimeout = 10 * time.Second
)

type cacheEntry struct {
	body      string
	fetchedAt time.Time
}

// Fetcher fetches iCal feed bodies over HTTP with a time-based in-memory
// cache. Entries are keyed by exact URL string and live for the configured
// TTL; the cache is never populated on a failed fetch.
type Fetcher struct {
	client *http.Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewFetcher creates a Fetcher with the given TTL. A ttl of zero uses
// DefaultTTL.
func NewFetcher(ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// Fetch returns the feed body for url, from cache when fresh. A network
// error, timeout, or non-2xx status is returned to the caller; any previously
// cached body is left untouched.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.RLock()
	entry, ok := f.cache[url]
	f.mu.RUnlock()
	if ok && f.now().Sub(entry.fetchedAt) < f.ttl {
		return entry.body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch feed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}

	text := string(body)
	f.mu.Lock()
	f.cache[url] = cacheEntry{body: text, fetchedAt: f.now()}
	f.mu.Unlock()

	return text, nil
}
