// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package httppool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/clock"
)

// ErrConfiguration is matched by every error returned from New.
var ErrConfiguration = errors.New("invalid pool configuration")

// Default ceilings applied when a Config field is zero.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultMaxConnections  = 100
	DefaultMaxKeepAlive    = 20
	DefaultKeepAliveExpiry = 30 * time.Second
)

// Config configures a Pool.
type Config struct {
	// BaseURL is the API root every endpoint is resolved against, for
	// example "https://api.taiga.io/api/v1". Required; http or https.
	BaseURL string

	// Timeout bounds each request, including reading the body.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxConnections caps concurrent connections to the host.
	// Zero means DefaultMaxConnections.
	MaxConnections int

	// MaxKeepAlive caps idle connections kept for reuse. Zero means
	// DefaultMaxKeepAlive. Must not exceed MaxConnections.
	MaxKeepAlive int

	// KeepAliveExpiry closes idle connections after this long. Zero
	// means DefaultKeepAliveExpiry.
	KeepAliveExpiry time.Duration

	// Clock times requests for metrics. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives lifecycle messages at debug level. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

func (config *Config) applyDefaults() {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	if config.MaxKeepAlive == 0 {
		config.MaxKeepAlive = min(DefaultMaxKeepAlive, config.MaxConnections)
	}
	if config.KeepAliveExpiry == 0 {
		config.KeepAliveExpiry = DefaultKeepAliveExpiry
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
}

func (config *Config) validate() (*url.URL, error) {
	var errs []error
	base, err := url.Parse(config.BaseURL)
	switch {
	case config.BaseURL == "":
		errs = append(errs, errors.New("base URL is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("base URL: %w", err))
	case base.Scheme != "http" && base.Scheme != "https":
		errs = append(errs, fmt.Errorf("base URL %q must use http or https", config.BaseURL))
	case base.Host == "":
		errs = append(errs, fmt.Errorf("base URL %q has no host", config.BaseURL))
	}
	if config.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive (got %v)", config.Timeout))
	}
	if config.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max connections must be positive (got %d)", config.MaxConnections))
	}
	if config.MaxKeepAlive < 0 || config.MaxKeepAlive > config.MaxConnections {
		errs = append(errs, fmt.Errorf("max keep-alive must be between 0 and max connections %d (got %d)",
			config.MaxConnections, config.MaxKeepAlive))
	}
	if config.KeepAliveExpiry < 0 {
		errs = append(errs, fmt.Errorf("keep-alive expiry must be positive (got %v)", config.KeepAliveExpiry))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("httppool: %w: %w", ErrConfiguration, errors.Join(errs...))
	}
	base.Path = strings.TrimRight(base.Path, "/")
	return base, nil
}

// Pool owns the shared Session. Create one with New; the zero value is
// not usable.
type Pool struct {
	config  Config
	baseURL *url.URL
	metrics *Metrics

	mu      sync.Mutex
	session *Session
}

// New validates config and returns a pool in the uninitialized state.
// No connections or clients are allocated until Start or Acquire.
func New(config Config) (*Pool, error) {
	config.applyDefaults()
	base, err := config.validate()
	if err != nil {
		return nil, err
	}
	return &Pool{
		config:  config,
		baseURL: base,
		metrics: NewMetrics(),
	}, nil
}

// Config returns the pool configuration with defaults applied.
func (p *Pool) Config() Config { return p.config }

// Metrics returns the pool's call metrics aggregate. It survives
// Stop/Start cycles.
func (p *Pool) Metrics() *Metrics { return p.metrics }

// Start allocates the session if none is live. Calling Start on a
// started pool leaves the existing session in place.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startLocked()
}

func (p *Pool) startLocked() *Session {
	if p.session != nil {
		return p.session
	}
	p.session = newSession(p)
	p.config.Logger.Debug("connection pool started",
		"base_url", p.baseURL.String(),
		"max_connections", p.config.MaxConnections,
		"max_keepalive", p.config.MaxKeepAlive,
		"timeout", p.config.Timeout,
	)
	return p.session
}

// Stop closes the session's idle connections and returns the pool to
// the uninitialized state. In-flight requests on the old session run
// to completion. Stopping a stopped pool does nothing.
func (p *Pool) Stop() {
	p.mu.Lock()
	session := p.session
	p.session = nil
	p.mu.Unlock()

	if session == nil {
		return
	}
	session.close()
	p.config.Logger.Debug("connection pool stopped", "base_url", p.baseURL.String())
}

// Started reports whether a session is live.
func (p *Pool) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Acquire returns the live session, starting the pool if needed.
// Concurrent callers receive the same *Session.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(), nil
}

// WithSession acquires the session and passes it to fn. Returning from
// fn does not stop the pool.
func (p *Pool) WithSession(ctx context.Context, fn func(*Session) error) error {
	session, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	return fn(session)
}

// Do acquires the session and performs one request. See Session.Do.
func (p *Pool) Do(ctx context.Context, method, endpoint string, options ...RequestOption) (*Response, error) {
	session, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return session.Do(ctx, method, endpoint, options...)
}

// Get performs a GET request.
func (p *Pool) Get(ctx context.Context, endpoint string, options ...RequestOption) (*Response, error) {
	return p.Do(ctx, "GET", endpoint, options...)
}

// Post performs a POST request.
func (p *Pool) Post(ctx context.Context, endpoint string, options ...RequestOption) (*Response, error) {
	return p.Do(ctx, "POST", endpoint, options...)
}

// Put performs a PUT request.
func (p *Pool) Put(ctx context.Context, endpoint string, options ...RequestOption) (*Response, error) {
	return p.Do(ctx, "PUT", endpoint, options...)
}

// Patch performs a PATCH request.
func (p *Pool) Patch(ctx context.Context, endpoint string, options ...RequestOption) (*Response, error) {
	return p.Do(ctx, "PATCH", endpoint, options...)
}

// Delete performs a DELETE request.
func (p *Pool) Delete(ctx context.Context, endpoint string, options ...RequestOption) (*Response, error) {
	return p.Do(ctx, "DELETE", endpoint, options...)
}
