package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/seoscope/pkg/httpclient"
	"github.com/FranksOps/seoscope/pkg/ratelimit"
	"github.com/FranksOps/seoscope/pkg/useragent"
	"github.com/jonboulle/clockwork"
)

func TestFetcher_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "TestBrowser/1.0" {
			t.Errorf("expected User-Agent TestBrowser/1.0, got %q", got)
		}
		w.Header().Set("X-Test", "true")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	fetcher, err := NewFetcher(FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: httpclient.ProfileGo,
		UserAgent:   "TestBrowser/1.0",
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	res, err := fetcher.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", res.StatusCode)
	}
	if !res.OK() || !res.IsHTML() {
		t.Errorf("expected an OK HTML page, got status %d headers %v", res.StatusCode, res.Headers)
	}
	if string(res.Body) != "ok" {
		t.Errorf("expected body 'ok', got %s", string(res.Body))
	}
	if res.Headers.Get("X-Test") != "true" {
		t.Errorf("expected X-Test header 'true', got %v", res.Headers["X-Test"])
	}
	if res.FinalURL != ts.URL {
		t.Errorf("expected final url %s, got %s", ts.URL, res.FinalURL)
	}
	if res.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
	if res.Challenge.Detected() {
		t.Errorf("unexpected challenge %+v", res.Challenge)
	}
}

func TestFetcher_ErrorStatusIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	res, err := newTestFetcher(t).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StatusCode != http.StatusNotFound || res.OK() {
		t.Errorf("expected a non-OK 404 page, got %d", res.StatusCode)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fetcher, err := NewFetcher(FetchConfig{
		Timeout:     50 * time.Millisecond,
		Fingerprint: httpclient.ProfileGo,
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Errorf("expected request failure, got %v", err)
	}
}

func TestFetcher_DetectsChallenge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html><head><title>Just a moment...</title></head></html>"))
	}))
	defer ts.Close()

	res, err := newTestFetcher(t).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Challenge.Vendor != "Cloudflare" {
		t.Errorf("expected Cloudflare challenge, got %+v", res.Challenge)
	}
}

func TestFetcher_Limiter(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	clock := clockwork.NewFakeClock()
	fetcher, err := NewFetcher(FetchConfig{
		Fingerprint: httpclient.ProfileGo,
		Limiter:     ratelimit.Every(time.Second, 0, ratelimit.WithClock(clock)),
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	if _, err := fetcher.Fetch(context.Background(), ts.URL); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetcher.Fetch(ctx, ts.URL)
	if err == nil || !strings.Contains(err.Error(), "rate limiter") {
		t.Errorf("expected rate limiter error, got %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 request to reach the server, got %d", n)
	}
}

func TestFetcher_BrowserUserAgents(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("User-Agent"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fetcher, err := NewFetcher(FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: httpclient.ProfileGo,
		UserAgent:   "seoscope-test",
		UserAgents:  useragent.NewPool([]string{"Browser-A", "Browser-B"}),
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	for range 3 {
		if _, err := fetcher.Fetch(context.Background(), ts.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []string{"Browser-A", "Browser-B", "Browser-A"}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}
