package openpagerank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

func newAdapter(t *testing.T, body string) *Adapter {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("API-OPR") != "key" {
			t.Errorf("missing API-OPR header")
		}
		if r.URL.Query().Get("domains[]") != "example.com" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	client, _ := httpclient.New(httpclient.Config{})
	return New(Config{APIKey: "key", Endpoint: ts.URL}, client)
}

func TestFetch(t *testing.T) {
	a := newAdapter(t, `{"status_code":200,"response":[{"status_code":200,"error":"","page_rank_decimal":4.52,"domain":"example.com"}]}`)
	res := a.Fetch(context.Background(), "example.com")
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Metrics.DomainAuthority != 45.2 {
		t.Errorf("expected 45.2, got %v", res.Metrics.DomainAuthority)
	}
}

func TestFetch_DomainNotFound(t *testing.T) {
	a := newAdapter(t, `{"status_code":200,"response":[{"status_code":404,"error":"Domain not found","page_rank_decimal":0}]}`)
	res := a.Fetch(context.Background(), "example.com")
	if res.OK() || res.Err.Kind != provider.KindEmptyResult {
		t.Errorf("expected empty_result, got %+v", res.Err)
	}
}
