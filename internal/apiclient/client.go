package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"iris-therapy-portal/internal/logging"
	"iris-therapy-portal/internal/models"
)

// ErrAbsolutePath is returned when a caller passes a full URL instead of a
// path relative to the configured base URL.
var ErrAbsolutePath = errors.New("apiclient: path must be relative to the base URL")

// Observer is notified after every round trip. route has ids collapsed so it
// is safe to use as a metric label.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Client issues requests against the clinic REST backend. A Client is
// immutable; WithCredential returns a copy bound to a bearer token.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	credential models.Credential
	logger     *logging.Logger
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. No timeout is set by default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver registers a round-trip observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client bound to baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q is not absolute", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithCredential returns a copy of c that sends cred as a bearer token. An
// empty credential yields an anonymous client.
func (c *Client) WithCredential(cred models.Credential) *Client {
	cp := *c
	cp.credential = cred
	return &cp
}

// Do sends body as JSON to path and decodes a successful response into out.
// out may be nil. Non-2xx responses return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	target, err := c.resolve(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("apiclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !c.credential.Empty() {
		req.Header.Set("Authorization", "Bearer "+string(c.credential))
	}

	route := routeLabel(target.Path, c.baseURL.Path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, route, 0, start)
		c.logger.Warn("api request failed", "method", method, "route", route, "error", err)
		return fmt.Errorf("apiclient: %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()
	c.observe(method, route, resp.StatusCode, start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("apiclient: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(method, route, resp.StatusCode, respBody)
		c.logger.Info("api request rejected", "method", method, "route", route, "status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, route, err)
	}
	return nil
}

func (c *Client) observe(method, route string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, route, status, time.Since(start))
	}
}

func (c *Client) resolve(path string) (*url.URL, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse path: %w", err)
	}
	if rel.IsAbs() || rel.Host != "" {
		return nil, ErrAbsolutePath
	}
	target := *c.baseURL
	target.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	target.RawQuery = rel.RawQuery
	return &target, nil
}

// withQuery appends encoded query parameters to a relative path.
func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// routeLabel keeps the first path segment and collapses the rest to ":id".
func routeLabel(path, basePath string) string {
	p := strings.TrimPrefix(path, strings.TrimRight(basePath, "/"))
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "/"
	}
	for i := 1; i < len(parts); i++ {
		parts[i] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}
