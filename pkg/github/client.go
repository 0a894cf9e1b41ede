// Package github downloads definition files from GitHub repository tarballs
// and gists. It applies no layout-specific filtering; providers do that.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/jingkaihe/agentdefs/pkg/logger"
	"github.com/jingkaihe/agentdefs/pkg/version"
)

// DefaultAPIBaseURL is the public GitHub REST API
const DefaultAPIBaseURL = "https://api.github.com"

// File is a text file fetched from GitHub
type File struct {
	// Path is relative to the repository root, or the gist file name.
	Path    string
	Content string
}

// RetryConfig controls retries of transient failures
type RetryConfig struct {
	Attempts     int    `mapstructure:"attempts"`
	InitialDelay int    `mapstructure:"initial_delay_ms"`
	MaxDelay     int    `mapstructure:"max_delay_ms"`
	BackoffType  string `mapstructure:"backoff_type"` // fixed or exponential
}

// DefaultRetryConfig retries three times with exponential backoff
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     3,
		InitialDelay: 500,
		MaxDelay:     5000,
		BackoffType:  "exponential",
	}
}

// NetworkError is a failed request or a non-success HTTP status
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s returned HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractionError is a response that could not be decoded
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "extraction failed: " + e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }

// Option configures a client
type Option func(*client)

// WithToken authenticates requests with a bearer token
func WithToken(token string) Option {
	return func(c *client) { c.token = token }
}

// WithAPIBaseURL points the client at another API host, such as GitHub
// Enterprise or a test server.
func WithAPIBaseURL(baseURL string) Option {
	return func(c *client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) { c.httpClient = httpClient }
}

// WithRetry replaces the retry policy
func WithRetry(cfg RetryConfig) Option {
	return func(c *client) { c.retry = cfg }
}

type client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	retry      RetryConfig
}

func newClient(opts ...Option) client {
	c := client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    DefaultAPIBaseURL,
		retry:      DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// get performs a GET with retries and hands the successful body to read.
// read runs inside the retry loop so a truncated body is retried too.
func (c *client) get(ctx context.Context, url string, read func(io.Reader) error) error {
	initialDelay := time.Duration(c.retry.InitialDelay) * time.Millisecond
	maxDelay := time.Duration(c.retry.MaxDelay) * time.Millisecond

	var delayType retry.DelayTypeFunc
	switch c.retry.BackoffType {
	case "fixed":
		delayType = retry.FixedDelay
	case "exponential":
		fallthrough
	default:
		delayType = retry.BackOffDelay
	}

	attempts := c.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	return retry.Do(
		func() error {
			return c.getOnce(ctx, url, read)
		},
		retry.RetryIf(isRetryableError),
		retry.Attempts(uint(attempts)),
		retry.Delay(initialDelay),
		retry.DelayType(delayType),
		retry.MaxDelay(maxDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).WithField("max_attempts", attempts).Warn("retrying GitHub request")
		}),
	)
}

func (c *client) getOnce(ctx context.Context, url string, read func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := read(resp.Body); err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			return err
		}
		return &NetworkError{URL: url, Err: err}
	}
	return nil
}

// isRetryableError retries transport failures, 5xx and 429. Cancellation,
// other statuses and undecodable responses are final.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.StatusCode == 0 {
			return true
		}
		return netErr.StatusCode == http.StatusTooManyRequests || netErr.StatusCode >= 500
	}
	return false
}
