// SPDX-License-Identifier: MIT

// Package httpx implements the outbound HTTP client used by all lookup
// providers: default browser-like headers, optional User-Agent rotation,
// bounded retries on transient status codes, per-host rate limiting and
// per-host circuit breaking.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/metrics"
	"github.com/devKaos117/hekate/internal/ratelimit"
	"github.com/devKaos117/hekate/internal/resilience"
)

// ErrRetriesExhausted wraps the last error after all retry attempts failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Options configures the outbound client.
type Options struct {
	Timeout        time.Duration     // per-request timeout
	MaxRetries     int               // retry attempts after the first request
	RetryStatus    []int             // status codes that trigger a retry
	Headers        map[string]string // default headers on every request
	UserAgents     []string          // pool for User-Agent rotation
	RandomizeAgent bool              // rotate User-Agent per request

	BreakerThreshold int           // consecutive failures before a host trips
	BreakerReset     time.Duration // cool-down before probing a tripped host
}

// DefaultOptions mirrors the stock client configuration: 10s timeout,
// 3 retries on 429/5xx, browser-like headers and a rotating agent pool.
func DefaultOptions() Options {
	return Options{
		Timeout:     10 * time.Second,
		MaxRetries:  3,
		RetryStatus: []int{429, 500, 502, 503, 504},
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml,application/json",
			"Accept-Language": "en-US,en,pt-BR,pt",
			"Cache-Control":   "no-cache",
			"Referer":         "https://www.google.com/",
			"DNT":             "1",
		},
		UserAgents:       defaultUserAgents,
		RandomizeAgent:   true,
		BreakerThreshold: 5,
		BreakerReset:     time.Minute,
	}
}

// Response is the outcome of a successful request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string // URL after redirects
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Client performs outbound requests on behalf of lookup providers.
type Client struct {
	http    *http.Client
	opts    Options
	limiter *ratelimit.Limiter
	logger  zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker

	rng *rand.Rand
}

// New creates a client. limiter may be nil to disable outbound throttling.
func New(opts Options, limiter *ratelimit.Limiter, logger zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiter:  limiter,
		logger:   logger,
		breakers: make(map[string]*resilience.CircuitBreaker),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // jitter, not crypto
	}
}

// Get issues a GET request with the client's default headers. params may be
// nil; otherwise it is encoded into the query string.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if params != nil {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	host := u.Hostname()
	breaker := c.hostBreaker(host)

	var resp *Response
	err = breaker.Execute(func() error {
		var execErr error
		resp, execErr = c.doWithRetry(ctx, u.String(), host)
		return execErr
	})
	if err != nil {
		metrics.IncOutboundRequest(host, "error")
		return nil, err
	}

	metrics.IncOutboundRequest(host, "success")
	return resp, nil
}

func (c *Client) doWithRetry(ctx context.Context, fullURL, host string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.IncOutboundRetry()
			backoff := time.Duration(attempt*attempt*500) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, host); err != nil {
				return nil, err
			}
		}

		resp, retryable, err := c.doOnce(ctx, fullURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		c.logger.Debug().
			Err(err).
			Str("url", fullURL).
			Int("attempt", attempt+1).
			Msg("retrying request")
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.opts.MaxRetries+1, lastErr)
}

// doOnce performs a single attempt. The bool reports whether the failure is
// worth retrying.
func (c *Client) doOnce(ctx context.Context, fullURL string) (*Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, err
	}

	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	if ua := c.userAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	for _, code := range c.opts.RetryStatus {
		if res.StatusCode == code {
			return nil, true, fmt.Errorf("status %d from %s", res.StatusCode, req.URL.Host)
		}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, false, fmt.Errorf("unexpected status %d from %s", res.StatusCode, req.URL.Host)
	}

	finalURL := fullURL
	if res.Request != nil && res.Request.URL != nil {
		finalURL = res.Request.URL.String()
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
		FinalURL:   finalURL,
	}, false, nil
}

func (c *Client) userAgent() string {
	if len(c.opts.UserAgents) == 0 {
		return ""
	}
	if !c.opts.RandomizeAgent {
		return c.opts.UserAgents[0]
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.UserAgents[c.rng.Intn(len(c.opts.UserAgents))]
}

func (c *Client) hostBreaker(host string) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[host]
	if !ok {
		cb = resilience.NewCircuitBreaker(host, c.opts.BreakerThreshold, c.opts.BreakerReset)
		c.breakers[host] = cb
	}
	return cb
}
