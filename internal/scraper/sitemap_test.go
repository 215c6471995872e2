package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/seoscope/internal/cache"
	"github.com/jonboulle/clockwork"
)

func xmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}
}

func urlset(locs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>\n", l)
	}
	b.WriteString("</urlset>")
	return b.String()
}

func TestSitemapFetcher_FlatSitemap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", xmlHandler(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
   <url>
      <loc>http://example.com/</loc>
      <lastmod>2023-01-01</lastmod>
      <changefreq>monthly</changefreq>
      <priority>0.8</priority>
   </url>
   <url>
      <loc>http://example.com/page1</loc>
   </url>
</urlset>`))

	ts := httptest.NewServer(mux)
	defer ts.Close()

	sf := NewSitemapFetcher(newTestFetcher(t), slog.Default(), 0)
	urls, err := sf.FetchSitemap(context.Background(), ts.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 2 {
		t.Fatalf("expected 2 URLs, got %d", len(urls))
	}
	if urls[0] != "http://example.com/" {
		t.Errorf("expected first url to be http://example.com/, got %s", urls[0])
	}
	if urls[1] != "http://example.com/page1" {
		t.Errorf("expected second url to be http://example.com/page1, got %s", urls[1])
	}
}

func TestSitemapFetcher_SitemapIndex(t *testing.T) {
	mux := http.NewServeMux()

	var baseURL string
	mux.HandleFunc("/sitemap_index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
   <sitemap><loc>` + baseURL + `/sitemap1.xml</loc></sitemap>
   <sitemap><loc>` + baseURL + `/sitemap2.xml</loc></sitemap>
   <sitemap><loc>` + baseURL + `/missing.xml</loc></sitemap>
</sitemapindex>`))
	})
	mux.HandleFunc("/sitemap1.xml", xmlHandler(urlset("http://example.com/s1-1")))
	mux.HandleFunc("/sitemap2.xml", xmlHandler(urlset("http://example.com/s2-1", "http://example.com/s2-2")))

	ts := httptest.NewServer(mux)
	defer ts.Close()
	baseURL = ts.URL

	sf := NewSitemapFetcher(newTestFetcher(t), slog.Default(), 0)
	urls, err := sf.FetchSitemap(context.Background(), ts.URL+"/sitemap_index.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(urls) != 3 {
		t.Fatalf("expected 3 URLs from nested sitemaps, got %d", len(urls))
	}

	expected := map[string]bool{
		"http://example.com/s1-1": true,
		"http://example.com/s2-1": true,
		"http://example.com/s2-2": true,
	}
	for _, u := range urls {
		if !expected[u] {
			t.Errorf("unexpected URL parsed: %s", u)
		}
	}
}

func TestSitemapFetcher_MaxURLs(t *testing.T) {
	ts := httptest.NewServer(xmlHandler(urlset("http://e.com/1", "http://e.com/2", "http://e.com/3")))
	defer ts.Close()

	sf := NewSitemapFetcher(newTestFetcher(t), nil, 2)
	urls, err := sf.FetchSitemap(context.Background(), ts.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("expected cap of 2 URLs, got %v", urls)
	}
}

func TestSitemapFetcher_InvalidXML(t *testing.T) {
	ts := httptest.NewServer(xmlHandler(`this is not xml`))
	defer ts.Close()

	sf := NewSitemapFetcher(newTestFetcher(t), slog.Default(), 0)
	_, err := sf.FetchSitemap(context.Background(), ts.URL+"/sitemap.xml")
	if err == nil || !strings.Contains(err.Error(), "failed to parse as sitemap or index") {
		t.Errorf("expected parsing error, got: %v", err)
	}
}

func TestIndex_FromRobotsSitemap(t *testing.T) {
	var baseURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nSitemap: " + baseURL + "/maps/main.xml\n"))
	})
	mux.HandleFunc("/maps/main.xml", xmlHandler(urlset("http://example.com/a", "http://example.com/b", "http://example.com/a")))

	ts := httptest.NewServer(mux)
	defer ts.Close()
	baseURL = ts.URL

	idx := NewIndex(IndexConfig{}, newTestFetcher(t), nil, nil)
	paths, err := idx.Paths(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 || paths[0] != "http://example.com/a" || paths[1] != "http://example.com/b" {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestIndex_CrawlFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", htmlHandler(`<html><body><a href="/guide/setup">Setup</a></body></html>`))
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	idx := NewIndex(IndexConfig{Crawl: &CrawlConfig{MaxDepth: 1}}, newTestFetcher(t), nil, nil)
	paths, err := idx.Paths(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 || paths[1] != ts.URL+"/guide/setup" {
		t.Errorf("unexpected crawl paths %v", paths)
	}

	idxNoCrawl := NewIndex(IndexConfig{}, newTestFetcher(t), nil, nil)
	if _, err := idxNoCrawl.Paths(context.Background(), ts.URL); err == nil {
		t.Error("expected an error without sitemap or crawl fallback")
	}
}

func TestIndex_CacheExpires(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		xmlHandler(urlset("http://example.com/a"))(w, r)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	clock := clockwork.NewFakeClock()
	idx := NewIndex(IndexConfig{Cache: cache.New[[]string](time.Hour, cache.WithClock(clock))}, newTestFetcher(t), nil, nil)

	for range 2 {
		if _, err := idx.Paths(context.Background(), ts.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one sitemap fetch while cached, got %d", got)
	}

	clock.Advance(time.Hour)
	if _, err := idx.Paths(context.Background(), ts.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("expected a refetch after the TTL, got %d fetches", got)
	}
}
