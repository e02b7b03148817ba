// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/failure"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/httppool"
)

// Attempt describes one pass through the Do loop. It exists only to be
// logged.
type Attempt struct {
	Method   string
	Endpoint string
	Number   int // 1-based
	Retries  int // retries spent before this attempt
	Elapsed  time.Duration
	Status   int    // 0 when no response arrived
	Outcome  string // "ok", "timeout", "rate_limited", "unauthorized", "http_error", "transport_error"
}

func (attempt Attempt) attrs(extra ...any) []any {
	attrs := []any{
		"method", attempt.Method,
		"endpoint", attempt.Endpoint,
		"attempt", attempt.Number,
		"retries", attempt.Retries,
		"elapsed", attempt.Elapsed,
		"outcome", attempt.Outcome,
	}
	if attempt.Status != 0 {
		attrs = append(attrs, "status", attempt.Status)
	}
	return append(attrs, extra...)
}

// Do performs one logical API call. endpoint is relative to the base
// URL. options are passed to the pool after the Authorization header,
// so a caller-supplied header of the same name wins.
//
// The call is retried within a single budget of Policy().MaxRetries:
//   - 429 sleeps for Retry-After seconds (5 when missing) and retries.
//   - a timeout sleeps for the policy backoff delay and retries.
//   - 401 on the first attempt with a refresh token held refreshes the
//     token once and retries. Any later 401 is final.
//
// Other statuses >= 400 and non-timeout transport failures are
// returned immediately as *APIError. A successful non-GET call
// invalidates the response cache.
func (client *Client) Do(ctx context.Context, method, endpoint string, options ...httppool.RequestOption) (*httppool.Response, error) {
	retryCount := 0
	for number := 1; ; number++ {
		if err := client.throttle(ctx); err != nil {
			return nil, err
		}

		start := client.clock.Now()
		response, err := client.pool.Do(ctx, method, endpoint, client.requestOptions(options)...)
		attempt := Attempt{
			Method:   method,
			Endpoint: endpoint,
			Number:   number,
			Retries:  retryCount,
			Elapsed:  client.clock.Now().Sub(start),
		}

		if err != nil {
			switch failure.KindOf(err) {
			case failure.KindTimeout:
				attempt.Outcome = "timeout"
				if retryCount < client.policy.MaxRetries {
					delay := client.policy.Delay(retryCount)
					client.logger.Warn("request timed out, retrying", attempt.attrs("delay", delay)...)
					if err := client.sleep(ctx, delay); err != nil {
						return nil, err
					}
					retryCount++
					continue
				}
				client.logger.Error("request timed out, retries exhausted", attempt.attrs("error", err)...)
				return nil, &TimeoutError{Method: method, Endpoint: endpoint, Retries: retryCount, Err: err}
			case failure.KindCanceled:
				return nil, err
			default:
				attempt.Outcome = "transport_error"
				client.logger.Error("request failed", attempt.attrs("error", err)...)
				return nil, &APIError{Method: method, Endpoint: endpoint, Message: err.Error(), Err: err}
			}
		}

		attempt.Status = response.StatusCode
		switch {
		case response.StatusCode == http.StatusTooManyRequests:
			attempt.Outcome = "rate_limited"
			if retryCount < client.policy.MaxRetries {
				delay := retryAfter(response.Header)
				client.logger.Warn("rate limited, retrying", attempt.attrs("delay", delay)...)
				if err := client.sleep(ctx, delay); err != nil {
					return nil, err
				}
				retryCount++
				continue
			}
			client.logger.Warn("rate limited, retries exhausted", attempt.attrs()...)
			return nil, newAPIError(method, endpoint, response.StatusCode, response.Body)

		case response.StatusCode == http.StatusUnauthorized:
			attempt.Outcome = "unauthorized"
			if _, refresh := client.Tokens(); retryCount == 0 && refresh != "" {
				client.logger.Warn("access token rejected, refreshing", attempt.attrs()...)
				if err := client.RefreshToken(ctx); err != nil {
					return nil, err
				}
				retryCount++
				continue
			}
			client.logger.Warn("request unauthorized", attempt.attrs()...)
			return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: errorMessage(response.Body)}

		case response.StatusCode >= 400:
			attempt.Outcome = "http_error"
			client.logger.Warn("request failed", attempt.attrs()...)
			return nil, newAPIError(method, endpoint, response.StatusCode, response.Body)
		}

		attempt.Outcome = "ok"
		client.logger.Debug("request completed", attempt.attrs()...)
		if method != http.MethodGet && client.cache != nil {
			client.cache.Invalidate()
		}
		return response, nil
	}
}

func (client *Client) requestOptions(options []httppool.RequestOption) []httppool.RequestOption {
	access, _ := client.Tokens()
	if access == "" {
		return options
	}
	merged := make([]httppool.RequestOption, 0, len(options)+1)
	merged = append(merged, httppool.WithHeader("Authorization", "Bearer "+access))
	return append(merged, options...)
}

// retryAfter parses an integer-seconds Retry-After header, falling back
// to defaultRetryAfter when it is missing, negative, or not an integer.
func retryAfter(header http.Header) time.Duration {
	value := strings.TrimSpace(header.Get("Retry-After"))
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// transportError wraps a pool error from a call made outside Do.
func transportError(method, endpoint string, err error) error {
	switch failure.KindOf(err) {
	case failure.KindTimeout:
		return &TimeoutError{Method: method, Endpoint: endpoint, Err: err}
	case failure.KindCanceled:
		return err
	}
	var apiError *APIError
	if errors.As(err, &apiError) {
		return err
	}
	return &APIError{Method: method, Endpoint: endpoint, Message: err.Error(), Err: err}
}
