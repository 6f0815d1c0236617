package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	traditionalPath = "/analyze/traditional"
	bodyBasedPath   = "/analyze/body-based"

	maxResponseSize = 4 << 20
	maxErrorExcerpt = 512
)

// Client calls the upstream analysis API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Traditional runs a symptom list analysis.
func (c *Client) Traditional(ctx context.Context, req TraditionalRequest) (json.RawMessage, error) {
	return c.post(ctx, traditionalPath, req)
}

// BodyBased runs a body map analysis.
func (c *Client) BodyBased(ctx context.Context, req BodyRequest) (json.RawMessage, error) {
	return c.post(ctx, bodyBasedPath, req)
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		return nil, errors.Join(ErrUpstream, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, excerpt(raw)))
	}
	return ExtractJSON(raw)
}

func excerpt(b []byte) string {
	if len(b) > maxErrorExcerpt {
		b = b[:maxErrorExcerpt]
	}
	return string(bytes.TrimSpace(b))
}
