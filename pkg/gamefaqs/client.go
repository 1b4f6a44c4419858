package gamefaqs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"gfmapdl/pkg/config"
	errs "gfmapdl/pkg/errors"
	"gfmapdl/pkg/logger"
	"gfmapdl/pkg/ratelimit"
	"gfmapdl/pkg/retry"
)

// NetworkObserver is told about every completed HTTP round-trip.
// A non-nil error aborts the current fetch.
type NetworkObserver interface {
	OnNetworkOp(ctx context.Context) error
}

// Client talks to GameFAQs over HTTP
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     logger.Logger
	limiter    ratelimit.Limiter
	retry      *retry.Config
	observer   NetworkObserver

	mu      sync.RWMutex
	headers map[string]string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLimiter paces every request through l
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithRetry enables retrying transient failures
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithObserver registers the observer notified after every round-trip
func WithObserver(o NetworkObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client from the site settings
func NewClient(cfg config.GameFAQsConfig, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = RandomUserAgent()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		logger:     logger.GetLogger(),
		limiter:    ratelimit.Unlimited,
		retry:      retry.DefaultConfig(),
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept-Language": cfg.AcceptLanguage,
			"Dnt":             "1",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = retry.DefaultConfig()
	}
	if c.retry.Logger == nil {
		c.retry.Logger = c.logger
	}
	return c
}

// BaseURL returns the site root the client resolves links against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// SetReferer sets the Referer header sent with every request
func (c *Client) SetReferer(referer string) {
	c.SetHeader("Referer", referer)
}

// Header returns the current value of a default header
func (c *Client) Header(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers[key]
}

// Fetch GETs url and streams the body into w, returning the number of bytes written.
// A non-2xx status yields an *errors.Error carrying the status code.
// Transient failures are retried only while nothing has been written to w.
func (c *Client) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	var (
		written int64
		halted  bool
	)

	cfg := *c.retry
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = retry.DefaultRetryIf
	}
	cfg.RetryIf = func(err error) bool {
		return !halted && written == 0 && retryIf(err)
	}

	err := retry.Do(ctx, func() error {
		n, sent, err := c.fetchOnce(ctx, url, w)
		written += n
		if sent && c.observer != nil {
			if observerErr := c.observer.OnNetworkOp(ctx); observerErr != nil {
				halted = true
				if err == nil {
					return observerErr
				}
				return errors.Join(err, observerErr)
			}
		}
		return err
	}, &cfg)

	return written, err
}

// fetchOnce performs a single GET. sent reports whether a round-trip reached
// the network, successful or not.
func (c *Client) fetchOnce(ctx context.Context, url string, w io.Writer) (n int64, sent bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, false, &errs.Error{Type: errs.ErrorTypeCancelled, Message: "request pacing interrupted", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Err:     err,
		}
	}

	c.mu.RLock()
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		errType := errs.ErrorTypeNetwork
		if ctx.Err() != nil {
			errType = errs.ErrorTypeCancelled
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return 0, true, &errs.Error{
			Type:    errType,
			Message: fmt.Sprintf("request failed: %v", err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, true, errs.FromStatus(resp.StatusCode, url)
	}

	n, err = io.Copy(w, resp.Body)
	if err != nil {
		errType := errs.ErrorTypeNetwork
		if ctx.Err() != nil {
			errType = errs.ErrorTypeCancelled
		}
		return n, true, &errs.Error{
			Type:    errType,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return n, true, nil
}
