package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Config holds client settings. Zero values fall back to Scryfall's
// documented limits.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
	UserAgent      string
}

// Client represents a Scryfall API client with rate limiting and retry.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	maxRetries  int
	userAgent   string
}

// NewClient creates a new Scryfall API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "commandzone/1.0"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		// Rate limiter: 1 request per 100ms = 10 req/sec
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		baseURL:     cfg.BaseURL,
		maxRetries:  cfg.MaxRetries,
		userAgent:   cfg.UserAgent,
	}
}

// Named retrieves a single card by name from /cards/named.
// With fuzzy enabled the endpoint tolerates minor misspellings.
func (c *Client) Named(ctx context.Context, name string, fuzzy bool) (*Card, error) {
	param := "exact"
	if fuzzy {
		param = "fuzzy"
	}
	u := fmt.Sprintf("%s/cards/named?%s=%s", c.baseURL, param, url.QueryEscape(name))

	var card Card
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &card); err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("failed to get card %q: %w", name, err)
	}

	return &card, nil
}

// Search performs a full-text search for cards, ordered by name.
// A query matching nothing returns an empty result, not an error.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	u := fmt.Sprintf("%s/cards/search?q=%s&order=name&page=1", c.baseURL, url.QueryEscape(query))

	var result SearchResult
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &result); err != nil {
		if IsNotFound(err) {
			// Scryfall answers 404 for searches with zero matches.
			return &SearchResult{Data: []Card{}}, nil
		}
		return nil, fmt.Errorf("failed to search cards with query %q: %w", query, err)
	}

	return &result, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)

			// Retry on network errors
			if attempt < c.maxRetries {
				if err := sleep(ctx, backoff); err != nil {
					return err
				}
				backoff = minDuration(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		retry, wait, err := c.handleResponse(resp, result, &backoff)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt >= c.maxRetries {
			return lastErr
		}
		if wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// handleResponse consumes one HTTP response. It reports whether the request
// should be retried and how long to wait before the next attempt; the caller
// only pays the wait when a retry actually remains.
func (c *Client) handleResponse(resp *http.Response, result interface{}, backoff *time.Duration) (bool, time.Duration, error) {
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, 0, fmt.Errorf("failed to read response body: %w", err)
		}
		if err := json.Unmarshal(body, result); err != nil {
			return false, 0, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, 0, nil

	case http.StatusTooManyRequests:
		// Rate limited - back off; honor Retry-After when present
		wait := *backoff
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if duration, err := time.ParseDuration(retryAfter + "s"); err == nil {
				wait = duration
			}
		}
		*backoff = minDuration(*backoff*2, maxBackoff)
		return true, wait, fmt.Errorf("rate limited (HTTP 429)")

	case http.StatusNotFound:
		return false, 0, &NotFoundError{}

	default:
		body, _ := io.ReadAll(resp.Body)

		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			apiErr.Status = resp.StatusCode
			return resp.StatusCode >= 500, 0, &apiErr
		}

		return resp.StatusCode >= 500, 0, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// minDuration returns the minimum of two time.Duration values.
func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
