// Package orchestrator is a thin typed wrapper over the orchestrator's HTTP
// contract (§6.2): GET/POST/PUT/DELETE with cookie auth and an explicit,
// opt-in TLS-verification bypass for self-signed clusters.
package orchestrator

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

// Client issues requests against a single orchestrator base URL, attaching
// an access_token cookie to every call.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithInsecureSkipVerify disables TLS certificate verification. This MUST be
// a conscious, explicit opt-in (§9) — it is never the default.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		transport := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}} //nolint:gosec
		c.httpClient.Transport = transport
	}
}

// WithHTTPClient overrides the underlying *http.Client, e.g. to inject a
// transport wired to an httptest.Server in tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets a per-request timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New builds a Client for baseURL, authenticating every request with token
// as the access_token cookie.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is the raw result of a call: the status code and the response
// body, left unparsed so callers can decide how to interpret non-2xx bodies
// (e.g. a 404 meaning "absent" is not an error to the diff/deploy layer).
type Response struct {
	StatusCode int
	Body       []byte
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "access_token", Value: c.token})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// Get issues a GET request with no body.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// Post issues a POST request with a JSON body. Pass a nil body for an empty
// POST (e.g. the restart endpoint).
func (c *Client) Post(ctx context.Context, path string, body *jsonval.Value) (*Response, error) {
	raw, err := bodyBytes(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, nil, raw)
}

// Put issues a PUT request with a JSON body and optional query parameters.
func (c *Client) Put(ctx context.Context, path string, body *jsonval.Value, query url.Values) (*Response, error) {
	raw, err := bodyBytes(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, query, raw)
}

// Delete issues a DELETE request with no body.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func bodyBytes(body *jsonval.Value) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return jsonval.MarshalOrdered(body)
}
