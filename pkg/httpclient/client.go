package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent identifies seoscope to sites and provider APIs when no
// explicit User-Agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (compatible; seoscope/1.0; +https://github.com/FranksOps/seoscope)"

// maxBodySize bounds how much of a response body ReadBody will buffer.
const maxBodySize = 8 * 1024 * 1024

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	// Fingerprint selects the TLS ClientHello presented to servers. Empty
	// means the standard Go TLS stack.
	Fingerprint Profile
	// Transport overrides the fingerprinted transport, e.g. in tests.
	Transport http.RoundTripper
}

// Client wraps a standard http.Client to provide configurable timeouts,
// redirect policies and a default User-Agent.
type Client struct {
	*http.Client
	userAgent string
}

// New creates a new HTTP client based on the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	c := &http.Client{
		Timeout: cfg.Timeout,
	}

	if cfg.MaxRedirects >= 0 {
		limit := cfg.MaxRedirects
		if limit == 0 {
			limit = 10
		}
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	switch {
	case cfg.Transport != nil:
		c.Transport = cfg.Transport
	case cfg.Fingerprint != "" && cfg.Fingerprint != ProfileGo:
		transport, err := Transport(cfg.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("build transport: %w", err)
		}
		c.Transport = transport
	}

	return &Client{Client: c, userAgent: cfg.UserAgent}, nil
}

// Do executes an HTTP request bound to ctx. A User-Agent header is added when
// the request does not carry one.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	reqWithCtx := req.Clone(ctx)
	if reqWithCtx.Header.Get("User-Agent") == "" {
		reqWithCtx.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.Client.Do(reqWithCtx)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// ReadBody drains and closes resp.Body, reading at most 8 MiB.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
