package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client sends rate limited requests and retries transient failures
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	maxRetries      int
	maxRetryTimeout time.Duration
	logger          zerolog.Logger
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
	Logger          *zerolog.Logger
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	logger := log.With().Str("component", "http_client").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		HTTPClient:      &http.Client{Timeout: opts.Timeout},
		Limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetries:      opts.MaxRetries,
		maxRetryTimeout: opts.MaxRetryTimeout,
		logger:          logger,
	}
}

// Retryable reports whether a response status is worth another attempt
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// DoRequest performs an HTTP request with rate limiting and retries.
// Client errors (4xx) other than 429 are returned on the first attempt.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	operation := func() error {
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var err error
		resp, err = c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusOK {
			return nil
		}

		resp.Body.Close()
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, URL: req.URL.Path}
		if !Retryable(resp.StatusCode) {
			return backoff.Permanent(statusErr)
		}
		return statusErr
	}

	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = c.maxRetryTimeout

	var strategy backoff.BackOff = exp
	if c.maxRetries > 0 {
		strategy = backoff.WithMaxRetries(exp, uint64(c.maxRetries))
	}

	attempt := 0
	notify := func(err error, wait time.Duration) {
		attempt++
		c.logger.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Str("path", req.URL.Path).
			Msg("Retrying request")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(strategy, ctx), notify); err != nil {
		return nil, err
	}

	return resp, nil
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}
