// Package upstream is the shared outbound HTTP client for third-party APIs.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultInitialBackoff = 500 * time.Millisecond
	defaultBreakerTimeout = 30 * time.Second
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for transport errors and 5xx.
	MaxRetries      uint64
	InitialBackoff  time.Duration
	BreakerFailures uint32
	HTTPClient      *http.Client
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError is returned when the server keeps answering with 5xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: status %d", e.StatusCode)
}

// Client wraps http.Client with a circuit breaker and optional bounded retry.
type Client struct {
	name           string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker
	maxRetries     uint64
	initialBackoff time.Duration
}

// New creates a Client. name labels the breaker in logs.
func New(name string, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	failures := opts.BreakerFailures
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     defaultBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("component", "upstream").
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Client{
		name:           name,
		httpClient:     httpClient,
		breaker:        gobreaker.NewCircuitBreaker(settings),
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
	}
}

// Do sends the request built by newReq, calling it again for every attempt.
// Responses with 4xx are returned without error; the caller decides.
func (c *Client) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		var resp *Response
		op := func() error {
			req, err := newReq(ctx)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("build request: %w", err))
			}
			r, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", redact(err))
			}
			defer r.Body.Close()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			resp = &Response{StatusCode: r.StatusCode, Body: body}
			if r.StatusCode >= 500 {
				return &StatusError{StatusCode: r.StatusCode, Body: string(body)}
			}
			return nil
		}

		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = c.initialBackoff
		b := backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx)
		notify := func(err error, wait time.Duration) {
			log.Debug().
				Str("component", "upstream").
				Str("name", c.name).
				Dur("wait", wait).
				Err(err).
				Msg("retrying request")
		}
		if err := backoff.RetryNotify(op, b, notify); err != nil {
			return resp, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Response), nil
}

// redact strips the query string from the URL carried by a transport error.
// Query parameters may hold API keys.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		uerr.URL = ""
		return err
	}
	u.RawQuery = ""
	u.User = nil
	uerr.URL = u.String()
	return err
}
