// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
)

// Configuration constants shared by the API clients.
const (
	// DefaultTimeout bounds a single request when Options.Timeout is zero.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the largest response body a client will read.
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent identifies the shell to remote APIs.
	UserAgent = "skript-server-wizard"
)

// ErrNotFound is returned when the remote API answers 404.
var ErrNotFound = errors.New("remote resource not found")

// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("response too large")

// APIError is a non-2xx answer from a remote API.
type APIError struct {
	Status int
	URL    string
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned HTTP %d: %s", e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("%s returned HTTP %d", e.URL, e.Status)
}

// Unwrap maps 404 to ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Options configures a client.
type Options struct {
	// RequestsPerSecond limits outgoing requests. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the limiter bucket size (default: 1).
	Burst int

	// Timeout bounds each request (default: DefaultTimeout).
	Timeout time.Duration

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// OptionsFromConfig builds Options from the remote config section.
func OptionsFromConfig(cfg config.RemoteConfig, logger *slog.Logger) Options {
	return Options{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Timeout:           time.Duration(cfg.TimeoutSecs) * time.Second,
		Logger:            logger,
	}
}

// client performs rate limited GET requests that return documents.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
	header  http.Header
}

func newClient(opts Options, header http.Header) *client {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if header == nil {
		header = make(http.Header)
	}
	header.Set("User-Agent", UserAgent)
	return &client{
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		logger:  logger,
		header:  header,
	}
}

// getDocument fetches url and parses the body.
func (c *client) getDocument(ctx context.Context, url string) (document.Value, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.open(ctx, url)
	if err != nil {
		return document.Value{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return document.Value{}, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return document.Value{}, fmt.Errorf("%s: %w", url, ErrResponseTooLarge)
	}

	v, err := document.Parse(string(body))
	if err != nil {
		return document.Value{}, fmt.Errorf("%s: %w", url, err)
	}
	return v, nil
}

// open waits for the limiter and issues a GET. Non-2xx answers are
// returned as *APIError with the body closed; otherwise the caller owns
// resp.Body.
func (c *client) open(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.logger.Debug("remote request", "url", url, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, &APIError{
			Status: resp.StatusCode,
			URL:    url,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	return resp, nil
}

// =============================================================================
// FIELD HELPERS
// =============================================================================

func stringField(v document.Value, key string) string {
	f, _ := v.Get(key)
	s, _ := f.AsString()
	return s
}

func intField(v document.Value, key string) int64 {
	f, _ := v.Get(key)
	n, _ := f.AsInt()
	return n
}

func boolField(v document.Value, key string) bool {
	f, _ := v.Get(key)
	b, _ := f.AsBool()
	return b
}
