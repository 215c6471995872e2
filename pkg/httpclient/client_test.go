package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, err := New(Config{Timeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	_, err = client.Do(context.Background(), req)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClient_Redirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1":
			http.Redirect(w, r, "/2", http.StatusFound)
		case "/2":
			http.Redirect(w, r, "/3", http.StatusFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer ts.Close()

	client, err := New(Config{MaxRedirects: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/1", nil)
	if _, err = client.Do(context.Background(), req); err == nil {
		t.Fatal("expected redirect limit error")
	}

	// Zero falls back to the default limit, which follows both hops.
	clientDefault, _ := New(Config{})
	req1, _ := http.NewRequest(http.MethodGet, ts.URL+"/1", nil)
	resp1, err := clientDefault.Do(context.Background(), req1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after redirects, got %d", resp1.StatusCode)
	}

	clientNoRedir, _ := New(Config{MaxRedirects: -1})
	req2, _ := http.NewRequest(http.MethodGet, ts.URL+"/1", nil)
	resp, err := clientNoRedir.Do(context.Background(), req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302 StatusFound, got %d", resp.StatusCode)
	}
}

func TestClient_UserAgent(t *testing.T) {
	var got []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, _ := New(Config{UserAgent: "AuditBot/2.0"})

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	req2, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req2.Header.Set("User-Agent", "Explicit/1.0")
	resp2, err := client.Do(context.Background(), req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp2.Body.Close()

	if len(got) != 2 || got[0] != "AuditBot/2.0" || got[1] != "Explicit/1.0" {
		t.Errorf("unexpected user agents: %v", got)
	}
}

func TestClient_Context(t *testing.T) {
	client, _ := New(Config{})

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	//nolint:staticcheck // nil context is the case under test
	_, err := client.Do(nil, req)
	if err == nil || !strings.Contains(err.Error(), "context cannot be nil") {
		t.Errorf("expected nil context error, got %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req2, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err = client.Do(ctx, req2); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestReadBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer ts.Close()

	client, _ := New(Config{})
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, err := ReadBody(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("expected payload, got %q", body)
	}
}
