package ical

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchCachesWithinTTL(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR\n"))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	ctx := context.Background()

	first, err := f.Fetch(ctx, server.URL)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	// 299s later: still fresh, no second network call.
	now = now.Add(299 * time.Second)
	second, err := f.Fetch(ctx, server.URL)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if first != second {
		t.Error("cached body differs from original")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("network calls = %d, want 1", got)
	}

	// 301s after the original fetch: expired, refetch.
	now = now.Add(2 * time.Second)
	if _, err := f.Fetch(ctx, server.URL); err != nil {
		t.Fatalf("third fetch: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("network calls = %d, want 2", got)
	}
}

func TestFetchDistinctURLsDistinctEntries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(r.URL.RawQuery))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Minute)
	ctx := context.Background()

	a, err := f.Fetch(ctx, server.URL+"/?m=alice")
	if err != nil {
		t.Fatalf("fetch alice: %v", err)
	}
	b, err := f.Fetch(ctx, server.URL+"/?m=bob")
	if err != nil {
		t.Fatalf("fetch bob: %v", err)
	}
	if a == b {
		t.Error("expected distinct bodies for distinct URLs")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("network calls = %d, want 2", got)
	}
}

func TestFetchErrorNotCached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Minute)
	ctx := context.Background()

	if _, err := f.Fetch(ctx, server.URL); err == nil {
		t.Fatal("expected error on 500 response")
	}

	// Failure must not populate the cache; the retry goes to the network.
	body, err := f.Fetch(ctx, server.URL)
	if err != nil {
		t.Fatalf("retry fetch: %v", err)
	}
	if body != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("network calls = %d, want 2", got)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	f := NewFetcher(time.Minute)
	if _, err := f.Fetch(context.Background(), "http://127.0.0.1:1/feed.ics"); err == nil {
		t.Fatal("expected error for unreachable host")
	}
}

func TestNewFetcherZeroTTLUsesDefault(t *testing.T) {
	f := NewFetcher(0)
	if f.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", f.ttl, DefaultTTL)
	}
}
