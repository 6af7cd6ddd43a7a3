// Package sheets implements the client of the spreadsheet web-app endpoint
// that fronts every sheet of the institute's workbook.
//
// One URL serves both directions:
//
//	GET  <url>?sheet=<name>[&lastSync=<iso>]  → {"data": [...]|null, "changed": [...]}
//	POST <url>?sheet=<name>                   ← one JSON row
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/circuitbreaker"
	"github.com/halaqat-hub/halaqat-reports/pkg/retry"
)

// MarkerLayout renders the lastSync query parameter (UTC, milliseconds).
const MarkerLayout = "2006-01-02T15:04:05.000Z"

// ErrNotConfigured is returned when no endpoint URL is set.
var ErrNotConfigured = errors.New("sheets: endpoint url not configured")

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the sheets client.
type ClientConfig struct {
	// BaseURL is the deployed web-app URL.
	BaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	RateLimiterConfig RateLimiterConfig

	// MaxAttempts applies to reads only; writes are sent once since the
	// endpoint appends.
	MaxAttempts int

	// BreakerFailureThreshold consecutive failures open the breaker for
	// BreakerTimeout.
	BreakerFailureThreshold int
	BreakerTimeout          time.Duration

	UserAgent string
	Logger    *slog.Logger
	Debug     bool
}

// DefaultClientConfig returns defaults for url.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		BaseURL:                 url,
		Timeout:                 30 * time.Second,
		RateLimiterConfig:       DefaultRateLimiterConfig(),
		MaxAttempts:             3,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
		UserAgent:               "halaqat-reports/1.0",
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the sheets endpoint. It is safe for concurrent use.
type Client struct {
	config  ClientConfig
	http    *resty.Client
	logger  *slog.Logger
	limiter *RateLimiter
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
}

var _ sheet.Remote = (*Client)(nil)

// NewClient creates a sheets client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	logger := config.Logger.With(slog.String("component", "sheets_client"))

	httpClient := resty.New().
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", config.UserAgent).
		SetDebug(config.Debug)

	return &Client{
		config:  config,
		http:    httpClient,
		logger:  logger,
		limiter: NewRateLimiter(config.RateLimiterConfig),
		breaker: circuitbreaker.New("sheets-api",
			circuitbreaker.WithFailureThreshold(config.BreakerFailureThreshold),
			circuitbreaker.WithTimeout(config.BreakerTimeout),
			circuitbreaker.WithIsFailure(countsAsFailure),
			circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
				logger.Warn("circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			}),
		),
		retrier: retry.New(
			retry.WithMaxAttempts(config.MaxAttempts),
			retry.WithInitialDelay(300*time.Millisecond),
			retry.WithMaxDelay(5*time.Second),
			retry.WithJitter(0.2),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				logger.Debug("retrying sheets request",
					slog.Int("attempt", attempt),
					slog.Duration("delay", delay),
					slog.String("error", err.Error()),
				)
			}),
		),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SHEET OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Fetch requests the delta of name since the marker. A zero marker omits
// lastSync and the endpoint answers with the full sheet.
func (c *Client) Fetch(ctx context.Context, name sheet.Name, since time.Time) (sheet.Delta, error) {
	if c.config.BaseURL == "" {
		return sheet.Delta{}, ErrNotConfigured
	}

	var delta sheet.Delta
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			d, err := c.fetchOnce(ctx, name, since)
			if err != nil {
				return err
			}
			delta = d
			return nil
		})
	})
	if err != nil {
		return sheet.Delta{}, fmt.Errorf("fetch sheet %s: %w", name, err)
	}
	return delta, nil
}

func (c *Client) fetchOnce(ctx context.Context, name sheet.Name, since time.Time) (sheet.Delta, error) {
	if err := c.limiter.Allow(ctx); err != nil {
		return sheet.Delta{}, retry.Permanent(err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("sheet", name.String())
	if !since.IsZero() {
		req.SetQueryParam("lastSync", FormatMarker(since))
	}

	resp, err := req.Get(c.config.BaseURL)
	if err != nil {
		return sheet.Delta{}, c.transportError(ctx, err)
	}
	if err := c.checkStatus(resp); err != nil {
		return sheet.Delta{}, err
	}

	var dto deltaResponseDTO
	if err := json.Unmarshal(resp.Body(), &dto); err != nil {
		return sheet.Delta{}, retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if dto.Error != "" {
		return sheet.Delta{}, retry.Permanent(&APIError{StatusCode: resp.StatusCode(), Message: dto.Error})
	}
	delta, err := dto.toDomain()
	if err != nil {
		return sheet.Delta{}, retry.Permanent(err)
	}

	c.logger.Debug("sheet fetched",
		slog.String("sheet", name.String()),
		slog.Bool("full", delta.Full),
		slog.Int("rows", len(delta.Rows)),
		slog.Int("changed", len(delta.Changed)),
	)
	return delta, nil
}

// Append posts one row to name.
func (c *Client) Append(ctx context.Context, name sheet.Name, row sheet.Row) error {
	if c.config.BaseURL == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		if err := c.limiter.Allow(ctx); err != nil {
			return err
		}
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("sheet", name.String()).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(c.config.BaseURL)
		if err != nil {
			return c.transportError(ctx, err)
		}
		if err := c.checkStatus(resp); err != nil {
			return err
		}

		var reply appendResponseDTO
		if json.Unmarshal(resp.Body(), &reply) == nil && reply.Error != "" {
			return &APIError{StatusCode: resp.StatusCode(), Message: reply.Error}
		}
		return nil
	})
	if err != nil {
		// Appends are never retried; a transient failure is left to the caller.
		transient := retry.IsRetryable(err)
		var retryable *retry.RetryableError
		if errors.As(err, &retryable) {
			err = retryable.Err
		}
		c.logger.Warn("append failed",
			slog.String("sheet", name.String()),
			slog.Bool("transient", transient),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("append to sheet %s: %w", name, err)
	}

	c.logger.Info("row appended", slog.String("sheet", name.String()))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// FormatMarker renders a sync marker the way the endpoint compares it.
func FormatMarker(t time.Time) string {
	return t.UTC().Format(MarkerLayout)
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return retry.Permanent(ctxErr)
	}
	return retry.Retryable(fmt.Errorf("http request: %w", err))
}

// checkStatus maps a non-2xx reply onto an error; 429 and 5xx are retried.
func (c *Client) checkStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}

	if code == http.StatusTooManyRequests {
		var retryAfter time.Duration
		if ra := resp.Header().Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		c.limiter.RecordRateLimitHit(retryAfter)
		return retry.Retryable(&RateLimitError{RetryAfter: retryAfter})
	}

	apiErr := &APIError{StatusCode: code, Message: truncate(string(resp.Body()), 200)}
	if apiErr.Temporary() {
		return retry.Retryable(apiErr)
	}
	return retry.Permanent(apiErr)
}

func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ClientStatus reports the client's protective state.
type ClientStatus struct {
	Configured   bool
	Breaker      string
	RateLimiter  RateLimiterStatus
	FailureCount int
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	counts := c.breaker.Counts()
	return ClientStatus{
		Configured:   c.config.BaseURL != "",
		Breaker:      c.breaker.State().String(),
		RateLimiter:  c.limiter.Status(),
		FailureCount: counts.ConsecutiveFailures,
	}
}

// Reset closes the breaker.
func (c *Client) Reset() {
	c.breaker.Reset()
}
