// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/clock"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/failure"
)

// ErrRetriesExhausted is matched by the error Execute returns when
// every attempt failed with a transient error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Operation is a retryable unit of work.
type Operation func(ctx context.Context) error

// Retrier runs operations under a Policy.
type Retrier struct {
	policy Policy
	clock  clock.Clock
	logger *slog.Logger
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithClock sets the clock used for backoff sleeps. Defaults to
// clock.Real().
func WithClock(c clock.Clock) RetrierOption {
	return func(r *Retrier) { r.clock = c }
}

// WithLogger sets the logger for retry and exhaustion messages.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RetrierOption {
	return func(r *Retrier) { r.logger = logger }
}

// NewRetrier binds policy to a clock and logger. The policy is assumed
// to come from NewPolicy.
func NewRetrier(policy Policy, options ...RetrierOption) *Retrier {
	retrier := &Retrier{
		policy: policy,
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, option := range options {
		option(retrier)
	}
	return retrier
}

// Policy returns the retrier's policy.
func (r *Retrier) Policy() Policy { return r.policy }

// Execute runs operation, retrying transient failures. name labels log
// lines; it may be empty.
//
// Non-transient errors are returned unchanged after a single call.
// When all MaxRetries+1 attempts fail transiently, the last error is
// returned wrapped with ErrRetriesExhausted. Cancelling ctx during a
// backoff sleep returns the context error.
func (r *Retrier) Execute(ctx context.Context, name string, operation Operation) error {
	for attempt := 0; ; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		if !r.policy.Retryable(err) {
			return err
		}

		if attempt >= r.policy.MaxRetries {
			r.logger.Error("operation failed after retries",
				"operation", name,
				"attempts", attempt+1,
				"kind", failure.KindOf(err).String(),
				"error", err,
			)
			return fmt.Errorf("backoff: %s: %w after %d attempts: %w", name, ErrRetriesExhausted, attempt+1, err)
		}

		delay := r.policy.Delay(attempt)
		r.logger.Warn("operation failed, retrying",
			"operation", name,
			"attempt", attempt+1,
			"delay", delay,
			"remaining", r.policy.MaxRetries-attempt-1,
			"kind", failure.KindOf(err).String(),
			"error", err,
		)

		select {
		case <-r.clock.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Wrap returns operation decorated with the retry behavior of Execute.
func (r *Retrier) Wrap(name string, operation Operation) Operation {
	return func(ctx context.Context) error {
		return r.Execute(ctx, name, operation)
	}
}

// Value runs a result-producing operation through r.Execute and
// returns the result of the successful attempt.
func Value[T any](ctx context.Context, r *Retrier, name string, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, name, func(ctx context.Context) error {
		value, err := operation(ctx)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	return result, err
}
