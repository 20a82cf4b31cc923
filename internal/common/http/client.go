// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a small wrapper that applies default headers to every request.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

type Option func(*Client)

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithHTTPClient replaces the underlying client, e.g. with an httptest server client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for k, vals := range c.headers {
		if req.Header.Get(k) == "" {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
	}
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}

// StatusError is returned by Get for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Get fetches url and returns the body of a 2xx response, up to limit bytes (0 = no limit).
func (c *Client) Get(ctx context.Context, url string, limit int64) ([]byte, error) {
	return c.GetWith(ctx, url, limit, nil)
}

// GetWith is Get with extra request headers that take precedence over the defaults.
func (c *Client) GetWith(ctx context.Context, url string, limit int64, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit)
	}
	return io.ReadAll(body)
}
