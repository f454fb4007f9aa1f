// Package httpclient is the shared JSON client every upstream data source is
// built on. Each call waits on the upstream's rate limiter, runs through a
// circuit breaker and is retried with exponential backoff on transport errors,
// 429 and 5xx responses.
package httpclient

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

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/ratelimit"
)

// ErrNotFound is returned for 404 responses. It is never retried.
var ErrNotFound = errors.New("resource not found")

// StatusError is a non-2xx response other than 404
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options configures a Client
type Options struct {
	API      string // metrics and breaker name, e.g. "dexscreener"
	BaseURL  string
	RPS      float64
	Timeout  time.Duration
	MaxRetry time.Duration // total time budget for retries; 0 disables retrying
	Headers  map[string]string
}

// Client performs rate limited, retried JSON requests against one upstream
type Client struct {
	api        string
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetry   time.Duration
	log        *logrus.Logger
}

// New creates a client for one upstream
func New(opts Options, log *logrus.Logger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	c := &Client{
		api:        opts.API,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		headers:    opts.Headers,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    ratelimit.New(opts.RPS),
		maxRetry:   opts.MaxRetry,
		log:        log,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     opts.API,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.5
		},
		// client errors say nothing about upstream health
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, ErrNotFound) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && !se.Retryable()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerStateChange(name, to.String())
			log.WithFields(logrus.Fields{
				"api":  name,
				"from": from.String(),
				"to":   to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return c
}

// API returns the upstream name used in metrics
func (c *Client) API() string {
	return c.api
}

// GetJSON issues a GET for path with the given query and decodes the JSON body
// into out. endpoint labels the call in metrics.
func (c *Client) GetJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	return c.do(ctx, endpoint, http.MethodGet, path, query, nil, out)
}

// PostJSON issues a POST with body encoded as JSON and decodes the response into out
func (c *Client) PostJSON(ctx context.Context, endpoint, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, endpoint, http.MethodPost, path, nil, payload, out)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, payload []byte, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest(c.api, endpoint, time.Since(start), err)
	}()

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		result, err := c.breaker.Execute(func() (any, error) {
			return c.roundTrip(ctx, method, u.String(), payload)
		})
		if err != nil {
			// a per-attempt timeout is retried, the caller giving up is not
			if ctx.Err() != nil || isPermanent(err) {
				return backoff.Permanent(err)
			}
			c.log.WithFields(logrus.Fields{
				"api":      c.api,
				"endpoint": endpoint,
				"attempt":  attempt,
			}).WithError(err).Debug("Upstream request failed, retrying")
			return err
		}

		body = result.([]byte)
		return nil
	}

	if err := backoff.Retry(operation, c.backoff(ctx)); err != nil {
		return fmt.Errorf("%s %s: %w", c.api, endpoint, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", c.api, endpoint, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// query strings may carry API keys
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = stripQuery(urlErr.URL)
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
	}

	return data, nil
}

func (c *Client) backoff(ctx context.Context) backoff.BackOff {
	if c.maxRetry <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 3 * time.Second
	b.MaxElapsedTime = c.maxRetry
	return backoff.WithContext(b, ctx)
}

func isPermanent(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Retryable()
	}
	return false
}

func stripQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
