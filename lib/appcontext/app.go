// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package appcontext wires configuration into a running set of
// components: logger, connection pool, response cache, API client,
// typed resources, and tool adapters.
//
// There are no package-level singletons. [Open] builds everything from
// a [config.Config] and returns an [App] that owns the pool and the
// cache; the client borrows the pool. [App.Close] tears down in the
// order client, pool, cache, so no component outlives something it
// depends on.
package appcontext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/backoff"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/cache"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/clock"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/config"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/failure"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/httppool"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/logging"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taiga"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taigatools"
)

// Options overrides ambient dependencies. The zero value uses the real
// clock and a logger built from the configuration.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

// App holds every long-lived component. Fields are read-only after
// Open returns.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Clock     clock.Clock
	Pool      *httppool.Pool
	Cache     *cache.Cache
	Client    *taiga.Client
	Resources *taiga.Resources
	Tools     *taigatools.Tools

	closeOnce sync.Once
	closeErr  error
}

// Open validates cfg and constructs the components. The pool session
// is started eagerly; no request is sent until the first call.
func Open(ctx context.Context, cfg *config.Config, options Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("appcontext: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("appcontext: %w: %w", taiga.ErrConfiguration, err)
	}

	logger := options.Logger
	if logger == nil {
		var err error
		logger, err = logging.FromConfig(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return nil, fmt.Errorf("appcontext: %w", err)
		}
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	pool, err := httppool.New(httppool.Config{
		BaseURL:         cfg.Taiga.BaseURL,
		Timeout:         cfg.Taiga.Timeout.Std(),
		MaxConnections:  cfg.Pool.MaxConnections,
		MaxKeepAlive:    cfg.Pool.MaxKeepAlive,
		KeepAliveExpiry: cfg.Pool.KeepAliveExpiry.Std(),
		Clock:           clk,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("appcontext: %w", err)
	}
	if _, err := pool.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("appcontext: %w", err)
	}

	responseCache := cache.New(cache.Config{
		TTL:        cfg.Cache.TTL.Std(),
		MaxEntries: cfg.Cache.MaxEntries,
		Clock:      clk,
	})

	client, err := taiga.NewClient(taiga.Config{
		Username:     cfg.Taiga.Username,
		Password:     cfg.Taiga.Password,
		AuthToken:    cfg.Taiga.AuthToken,
		RefreshToken: cfg.Taiga.RefreshToken,
		Retry: backoff.Policy{
			MaxRetries:      cfg.Retry.MaxRetries,
			BaseDelay:       cfg.Retry.BaseDelay.Std(),
			MaxDelay:        cfg.Retry.MaxDelay.Std(),
			ExponentialBase: cfg.Retry.ExponentialBase,
			Jitter:          cfg.Retry.Jitter,
			Transient:       failure.Transient,
		},
		Pool:              pool,
		Cache:             responseCache,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Clock:             clk,
		Logger:            logger,
	})
	if err != nil {
		pool.Stop()
		responseCache.Close()
		return nil, fmt.Errorf("appcontext: %w", err)
	}

	logger.Debug("application context ready",
		"base_url", cfg.Taiga.BaseURL,
		"max_retries", cfg.Retry.MaxRetries,
		"cache_ttl", cfg.Cache.TTL.Std(),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Clock:     clk,
		Pool:      pool,
		Cache:     responseCache,
		Client:    client,
		Resources: taiga.NewResources(client),
		Tools:     taigatools.New(client, client),
	}, nil
}

// Authenticate logs in with the configured credentials unless a token
// is already held. Without credentials or a token it does nothing, and
// calls go out anonymously.
func (app *App) Authenticate(ctx context.Context) error {
	if access, _ := app.Client.Tokens(); access != "" || !app.Client.HasCredentials() {
		return nil
	}
	return app.Client.Authenticate(ctx)
}

// Close releases the client, then the pool, then the cache.
// Idempotent; later calls return the first result.
func (app *App) Close() error {
	app.closeOnce.Do(func() {
		var errs []error
		if err := app.Client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing client: %w", err))
		}
		app.Pool.Stop()
		app.Cache.Close()
		app.closeErr = errors.Join(errs...)
		app.Logger.Debug("application context closed")
	})
	return app.closeErr
}
