// Package llm talks to an OpenAI-compatible chat completions endpoint. It
// backs content keyword generation and brand sentiment.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/FranksOps/seoscope/internal/provider"
	"github.com/FranksOps/seoscope/pkg/httpclient"
)

const (
	Name            = "llm"
	DefaultEndpoint = "https://api.openai.com/v1"
	DefaultModel    = "gpt-4o-mini"
)

// Config configures the chat client.
type Config struct {
	APIKey      string
	Endpoint    string
	Model       string
	Temperature float64
}

// Client sends single-turn chat completions.
type Client struct {
	cfg    Config
	client *httpclient.Client
}

// New creates a Client.
func New(cfg Config, client *httpclient.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{cfg: cfg, client: client}
}

func (c *Client) IsConfigured() bool { return c != nil && c.cfg.APIKey != "" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// CompleteJSON asks for a JSON object answer and decodes it into out.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, out any) error {
	if !c.IsConfigured() {
		return provider.NotConfigured(Name)
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.Endpoint, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	var resp chatResponse
	if perr := provider.CallJSON(ctx, c.client, Name, req, &resp); perr != nil {
		return perr
	}
	if len(resp.Choices) == 0 {
		return provider.Empty(Name)
	}

	content := stripFence(resp.Choices[0].Message.Content)
	if content == "" {
		return provider.Empty(Name)
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return provider.NewError(Name, provider.KindMalformed, fmt.Errorf("decode completion: %w", err))
	}
	return nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
