// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/backoff"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/cache"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/clock"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/httppool"
)

// Limits on client settings.
const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 300 * time.Second
	MaxRetryLimit  = 10

	// minBaseURLLength rejects values like "http://a" that cannot name
	// a Taiga API root.
	minBaseURLLength = 11

	// defaultRetryAfter is the 429 backoff when the response carries
	// no usable Retry-After header.
	defaultRetryAfter = 5 * time.Second
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.taiga.io/api/v1".
	// Required when Pool is nil; ignored otherwise.
	BaseURL string

	// Username and Password are used by Authenticate.
	Username string
	Password string

	// AuthToken and RefreshToken seed the token pair, skipping the
	// initial Authenticate.
	AuthToken    string
	RefreshToken string

	// Timeout bounds each request on an owned pool. Zero means
	// DefaultTimeout. Ignored when Pool is set.
	Timeout time.Duration

	// Retry controls timeout backoff. Its MaxRetries is the shared
	// retry budget for timeouts and 429 responses. The zero value means
	// backoff.DefaultPolicy(), so Policy{MaxRetries: 0} retries three
	// times; use backoff.NoRetry() to disable retries. Zero
	// ExponentialBase and MaxDelay in a non-zero policy take the
	// defaults.
	Retry backoff.Policy

	// Pool is a borrowed connection pool. The client never stops a
	// borrowed pool. When nil the client creates and owns one.
	Pool *httppool.Pool

	// MaxConnections and MaxKeepAlive size an owned pool.
	MaxConnections int
	MaxKeepAlive   int

	// Cache, when non-nil and enabled, serves repeated GETs.
	Cache *cache.Cache

	// RequestsPerSecond throttles outgoing requests when positive.
	// Burst defaults to 1.
	RequestsPerSecond float64
	Burst             int

	// Clock defaults to clock.Real(). Backoff sleeps use it.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (config *Config) validate() error {
	var errs []error
	if config.Pool == nil {
		baseURL := config.BaseURL
		switch {
		case baseURL == "":
			errs = append(errs, &ConfigError{Field: "base_url", Err: errors.New("is required")})
		case !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://"):
			errs = append(errs, &ConfigError{Field: "base_url", Err: fmt.Errorf("%q must start with http:// or https://", baseURL)})
		case len(baseURL) < minBaseURLLength:
			errs = append(errs, &ConfigError{Field: "base_url", Err: fmt.Errorf("%q is too short", baseURL)})
		}
		if config.Timeout < 0 || config.Timeout > MaxTimeout {
			errs = append(errs, &ConfigError{Field: "timeout", Err: fmt.Errorf("must be in (0, %v] (got %v)", MaxTimeout, config.Timeout)})
		}
	}
	if config.Retry.MaxRetries < 0 || config.Retry.MaxRetries > MaxRetryLimit {
		errs = append(errs, &ConfigError{Field: "max_retries", Err: fmt.Errorf("must be in [0, %d] (got %d)", MaxRetryLimit, config.Retry.MaxRetries)})
	}
	if config.RequestsPerSecond < 0 {
		errs = append(errs, &ConfigError{Field: "requests_per_second", Err: fmt.Errorf("must not be negative (got %v)", config.RequestsPerSecond)})
	}
	return errors.Join(errs...)
}

// Client is the Taiga API call orchestrator. It attaches the bearer
// token, classifies responses into typed errors, refreshes the token
// on a first 401, honors Retry-After on 429, and retries timeouts with
// exponential backoff.
//
// Client is safe for concurrent use. Concurrent calls share the pool
// session; the token pair is last-writer-wins.
type Client struct {
	pool     *httppool.Pool
	ownsPool bool
	policy   backoff.Policy
	cache    *cache.Cache
	limiter  *rate.Limiter
	clock    clock.Clock
	logger   *slog.Logger

	username string
	password string

	tokenMu      sync.RWMutex
	accessToken  string
	refreshToken string

	refreshGroup singleflight.Group

	closeOnce sync.Once
}

// NewClient validates config and returns a client. No network traffic
// happens until the first call.
func NewClient(config Config) (*Client, error) {
	if config.Retry == (backoff.Policy{}) {
		config.Retry = backoff.DefaultPolicy()
	}
	config.Retry = config.Retry.WithDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	policy, err := backoff.NewPolicy(config.Retry)
	if err != nil {
		return nil, &ConfigError{Field: "retry", Err: err}
	}

	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	pool := config.Pool
	ownsPool := false
	if pool == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		pool, err = httppool.New(httppool.Config{
			BaseURL:        config.BaseURL,
			Timeout:        timeout,
			MaxConnections: config.MaxConnections,
			MaxKeepAlive:   config.MaxKeepAlive,
			Clock:          config.Clock,
			Logger:         config.Logger,
		})
		if err != nil {
			return nil, &ConfigError{Field: "pool", Err: err}
		}
		ownsPool = true
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &Client{
		pool:         pool,
		ownsPool:     ownsPool,
		policy:       policy,
		cache:        config.Cache,
		limiter:      limiter,
		clock:        config.Clock,
		logger:       config.Logger,
		username:     config.Username,
		password:     config.Password,
		accessToken:  config.AuthToken,
		refreshToken: config.RefreshToken,
	}, nil
}

// Connect ensures the pool session is live. Idempotent.
func (client *Client) Connect(ctx context.Context) error {
	_, err := client.pool.Acquire(ctx)
	return err
}

// Close stops the pool if the client owns it. A borrowed pool is left
// running. Idempotent.
func (client *Client) Close() error {
	client.closeOnce.Do(func() {
		if client.ownsPool {
			client.pool.Stop()
		}
	})
	return nil
}

// OwnsPool reports whether Close stops the pool.
func (client *Client) OwnsPool() bool { return client.ownsPool }

// Metrics returns the call metrics of the underlying pool.
func (client *Client) Metrics() *httppool.Metrics { return client.pool.Metrics() }

// Policy returns the retry policy governing timeouts and the shared
// retry budget.
func (client *Client) Policy() backoff.Policy { return client.policy }

// Tokens returns the current access and refresh tokens.
func (client *Client) Tokens() (access, refresh string) {
	client.tokenMu.RLock()
	defer client.tokenMu.RUnlock()
	return client.accessToken, client.refreshToken
}

// SetTokens replaces the token pair.
func (client *Client) SetTokens(access, refresh string) {
	client.tokenMu.Lock()
	defer client.tokenMu.Unlock()
	client.accessToken = access
	client.refreshToken = refresh
}

// HasCredentials reports whether Authenticate can be called.
func (client *Client) HasCredentials() bool {
	return client.username != "" && client.password != ""
}

// EnsureAuthenticated authenticates with the configured credentials
// when no access token is held.
func (client *Client) EnsureAuthenticated(ctx context.Context) error {
	if access, _ := client.Tokens(); access != "" {
		return nil
	}
	return client.Authenticate(ctx)
}

// sleep waits d on the client clock, returning early with the context
// error if ctx is done first.
func (client *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-client.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// throttle blocks until the rate limiter admits one request.
func (client *Client) throttle(ctx context.Context) error {
	if client.limiter == nil {
		return nil
	}
	if err := client.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("taiga: throttle: %w", err)
	}
	return nil
}
