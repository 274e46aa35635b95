package clients

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

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"gowalmart_seller/internal/walmart/business/services"
	"gowalmart_seller/pkg/logger"
	"gowalmart_seller/pkg/middleware"
)

const (
	DefaultRetryAttempts = 5
	DefaultRetryDelay    = time.Second
	maxRetryDelay        = 30 * time.Second
)

// BaseClient sends authenticated, rate limited and retried requests to the Walmart API.
type BaseClient struct {
	ApiURL string

	log     logger.Logger
	client  *http.Client
	auth    services.AuthEngine
	limiter *rate.Limiter
	do      middleware.Doer

	retryAttempts uint
	retryDelay    time.Duration
	middlewares   []middleware.Middleware
}

type Option func(*BaseClient)

func WithHTTPClient(client *http.Client) Option {
	return func(c *BaseClient) { c.client = client }
}

func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *BaseClient) { c.limiter = limiter }
}

func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *BaseClient) {
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

func WithMiddleware(middlewares ...middleware.Middleware) Option {
	return func(c *BaseClient) { c.middlewares = append(c.middlewares, middlewares...) }
}

// NewRateLimiter spreads requestsPerMinute evenly, allowing short bursts.
func NewRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := requestsPerMinute / 6
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
}

func NewBaseClient(apiURL string, auth services.AuthEngine, log logger.Logger, opts ...Option) *BaseClient {
	c := &BaseClient{
		ApiURL:        strings.TrimSuffix(apiURL, "/") + "/",
		log:           log,
		client:        &http.Client{Timeout: 100 * time.Second},
		auth:          auth,
		limiter:       rate.NewLimiter(rate.Inf, 1),
		retryAttempts: DefaultRetryAttempts,
		retryDelay:    DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.do = middleware.Chain(c.client.Do, append([]middleware.Middleware{middleware.Logging(log)}, c.middlewares...)...)
	return c
}

// Get decodes the JSON answer of GET endpoint?params into response.
func (c *BaseClient) Get(ctx context.Context, endpoint string, params url.Values, response interface{}) error {
	return c.doRequest(ctx, http.MethodGet, endpoint, params, nil, response)
}

// Post sends requestBody as JSON and decodes the JSON answer into response.
func (c *BaseClient) Post(ctx context.Context, endpoint string, params url.Values, requestBody interface{}, response interface{}) error {
	return c.doRequest(ctx, http.MethodPost, endpoint, params, requestBody, response)
}

// Download fetches an absolute URL without Walmart headers, e.g. a pre-signed report link.
func (c *BaseClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.DoWithData(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
		}
		resp, err := c.do(req)
		if err != nil {
			return nil, c.transportError(ctx, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, classify(services.NewAPIError(resp, body))
		}
		return body, nil
	}, c.retryOptions(ctx)...)
}

func (c *BaseClient) doRequest(ctx context.Context, method, endpoint string, params url.Values, requestBody interface{}, response interface{}) error {
	target := c.ApiURL + strings.TrimPrefix(endpoint, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var bodyBytes []byte
	if requestBody != nil {
		var err error
		bodyBytes, err = json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	return retry.Do(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Unrecoverable(fmt.Errorf("rate limiter error: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(bodyBytes))
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(services.ServiceNameHeader, services.ServiceName)
		req.Header.Set(services.CorrelationIDHeader, uuid.NewString())
		if requestBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if err := c.auth.SetApiKey(req); err != nil {
			return classify(err)
		}

		resp, err := c.do(req)
		if err != nil {
			return c.transportError(ctx, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return classify(services.NewAPIError(resp, body))
		}
		if response == nil || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}

		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber()
		if err := decoder.Decode(response); err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
		}
		return nil
	}, c.retryOptions(ctx)...)
}

func (c *BaseClient) transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return retry.Unrecoverable(fmt.Errorf("request was cancelled: %w", ctx.Err()))
	}
	return fmt.Errorf("failed to execute request: %w", err)
}

// classify marks every error except temporary API errors as final.
func classify(err error) error {
	if services.IsTemporary(err) {
		return err
	}
	return retry.Unrecoverable(err)
}

func (c *BaseClient) retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			var apiErr *services.APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				return apiErr.RetryAfter
			}
			return retry.BackOffDelay(n, err, config)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("retrying request (attempt %d): %s", n+1, err)
		}),
	}
}
