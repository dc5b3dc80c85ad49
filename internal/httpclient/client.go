package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	// DefaultTimeout is the per-attempt HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the exponential backoff base (base * 2^attempt).
	DefaultBackoffBase = 1 * time.Second
)

// Client executes HTTP requests with bounded retry on transient failures.
// The remote platform exhibits intermittent TLS resets under load, so every
// platform call routes through this one retry policy instead of being a
// naive single-shot request.
type Client struct {
	httpClient  *http.Client
	maxRetries  int
	backoffBase time.Duration
	logger      arbor.ILogger
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

// WithBackoffBase sets the exponential backoff base.
func WithBackoffBase(base time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a resilient HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		maxRetries:  DefaultMaxRetries,
		backoffBase: DefaultBackoffBase,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DoJSON executes a request with an optional JSON body. The response is
// returned as-is for application-level interpretation; only transport
// errors and retriable status codes (429/5xx) are retried here.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body interface{}) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}
	return c.Do(ctx, method, url, headers, payload)
}

// Do executes a request with a raw body, retrying on transient failures.
// Attempts the call up to maxRetries+1 times with exponential backoff
// before every retry; the last error is propagated after exhaustion.
func (c *Client) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoffBase * (1 << (attempt - 1))
			if c.logger != nil {
				c.logger.Debug().
					Str("url", url).
					Int("attempt", attempt+1).
					Dur("wait", wait).
					Msg("Retrying request")
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport failure (TLS reset, connection error, timeout)
			lastErr = err
			continue
		}

		if retriableStatus(resp.StatusCode) && attempt < c.maxRetries {
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			drain(resp)
			continue
		}

		// Non-retriable 4xx (and final-attempt 5xx) are returned to the
		// caller as-is; the executor does not interpret business errors.
		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// retriableStatus reports whether the status code indicates a transient
// server-side condition worth retrying.
func retriableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
