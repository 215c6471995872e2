package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/FranksOps/seoscope/internal/page"
	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string, check func(chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(req)
		}

		resp := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	hc, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)
	return New(Config{APIKey: "sk-test", Endpoint: endpoint}, hc)
}

func TestKeywordGenerator(t *testing.T) {
	content := "```json\n{\"keywords\":[{\"keyword\":\"widget pricing\",\"intent\":\"commercial\"},{\"keyword\":\" \"},{\"keyword\":\"install widgets\"},{\"keyword\":\"extra one\"}]}\n```"
	server := chatServer(t, content, func(req chatRequest) {
		assert.Equal(t, DefaultModel, req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, "Title: Acme Widgets")
			assert.Contains(t, req.Messages[1].Content, "H1: Widgets")
			assert.Contains(t, req.Messages[1].Content, "at most 2 keywords")
		}
		if assert.NotNil(t, req.ResponseFormat) {
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		}
	})
	defer server.Close()

	g := NewKeywordGenerator(newClient(t, server.URL), 2)
	got, err := g.Candidates(context.Background(), page.Facts{
		URL:      "https://acme.com",
		Title:    "Acme Widgets",
		H1:       []string{"Widgets"},
		MainText: strings.Repeat("word ", 1000),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "widget pricing", got[0].Keyword)
	assert.Equal(t, "commercial", got[0].Intent)
	assert.Equal(t, "install widgets", got[1].Keyword)
}

func TestKeywordGenerator_Unconfigured(t *testing.T) {
	hc, err := httpclient.New(httpclient.Config{})
	require.NoError(t, err)

	g := NewKeywordGenerator(New(Config{}, hc), 0)
	got, err := g.Candidates(context.Background(), page.Facts{})
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestBrandSentiment(t *testing.T) {
	server := chatServer(t, `{"score": 1.7, "mentions": " Many ", "summary": "Well liked."}`, func(req chatRequest) {
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, "Brand: acme")
		}
	})
	defer server.Close()

	s, err := newClient(t, server.URL).BrandSentiment(context.Background(), "acme", "acme.com")
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Score, "score is clamped")
	assert.Equal(t, "many", s.Mentions)
	assert.Equal(t, "Well liked.", s.Summary)
}

func TestCompleteJSON_Errors(t *testing.T) {
	server := chatServer(t, "not json", nil)
	defer server.Close()

	var out map[string]any
	err := newClient(t, server.URL).CompleteJSON(context.Background(), "s", "u", &out)
	assert.True(t, provider.IsKind(err, provider.KindMalformed), "got %v", err)

	empty := chatServer(t, "   ", nil)
	defer empty.Close()
	err = newClient(t, empty.URL).CompleteJSON(context.Background(), "s", "u", &out)
	assert.True(t, provider.IsKind(err, provider.KindEmptyResult), "got %v", err)
}
