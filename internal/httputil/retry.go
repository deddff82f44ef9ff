// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the API clients.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/topic-brainstorm/internal/logger"
)

const defaultMaxRetries = 3

// DefaultBaseDelay is the first backoff interval. Tests shorten it.
var DefaultBaseDelay = 2 * time.Second

// RetryClient retries requests answered with 429 (Too Many Requests) or 503
// (Service Unavailable) using exponential backoff. A Retry-After header in
// seconds takes precedence over the computed delay. Transport errors and
// other status codes are returned to the caller untouched.
type RetryClient struct {
	HTTP       *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	Log        *logger.Logger
}

// NewRetryClient returns a RetryClient with default retry settings.
func NewRetryClient(client *http.Client, log *logger.Logger) *RetryClient {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RetryClient{HTTP: client, Log: log}
}

// Do sends req, retrying throttled responses. After exhausting retries the
// last throttled response is returned so the caller can inspect it. If ctx
// is cancelled during a wait, ctx.Err() is returned.
func (c *RetryClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	base := c.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	log := c.Log
	if log == nil {
		log = logger.NewNop()
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.HTTP.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"))
		if wait <= 0 {
			wait = base << attempt
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Warn("request throttled, backing off",
			"url", req.URL.Redacted(), "status", resp.StatusCode,
			"attempt", attempt+1, "max_retries", maxRetries, "wait", wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// retryAfter parses a delta-seconds Retry-After value. HTTP-date values and
// garbage yield zero.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
