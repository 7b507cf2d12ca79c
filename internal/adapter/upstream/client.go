// Package upstream is the shared HTTP layer for third-party data providers:
// retries with exponential backoff behind a per-provider circuit breaker.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
	"github.com/sony/gobreaker"
)

// Backoff controls exponential backoff between attempts.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used when a provider does not configure its own.
var DefaultBackoff = Backoff{
	MaxRetries:      2,
	InitialInterval: 250 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client performs GET requests against one provider. Every returned error
// wraps domain.ErrUpstreamUnavailable.
type Client struct {
	name       string
	httpClient *http.Client
	backoff    Backoff
	timeout    time.Duration
	circuit    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	// Timeout bounds a single call, retries included. Zero disables it.
	Timeout time.Duration
	Backoff Backoff
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// New creates a client named after its provider. The name labels metrics,
// log lines and the circuit breaker.
func New(name string, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	backoff := opts.Backoff
	if backoff.InitialInterval <= 0 {
		backoff = DefaultBackoff
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "source", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		name:       name,
		httpClient: hc,
		backoff:    backoff,
		timeout:    opts.Timeout,
		circuit:    cb,
		metrics:    metrics,
		logger:     logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// GetJSON issues GET rawURL?query and decodes the JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, dst any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fullURL := rawURL
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	start := time.Now()
	body, err := c.do(ctx, fullURL)
	c.metrics.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, errCircuitOpen) {
			outcome = "circuit_open"
		}
		c.metrics.UpstreamRequests.WithLabelValues(c.name, outcome).Inc()
		return fmt.Errorf("%w: %s: %w", domain.ErrUpstreamUnavailable, c.name, err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(c.name, "error").Inc()
		return fmt.Errorf("%w: %s: decode response: %w", domain.ErrUpstreamUnavailable, c.name, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues(c.name, "success").Inc()
	return nil
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.circuit.Execute(func() (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return nil, fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return io.ReadAll(resp.Body)
		})
		if err == nil {
			return result.([]byte), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", errCircuitOpen, err)
		}
		if errors.Is(err, errUnexpected) || attempt >= c.backoff.MaxRetries {
			return nil, err
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}
		c.logger.Debug("retrying upstream request", "source", c.name, "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}
