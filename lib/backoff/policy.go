// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"errors"
	"fmt"
	"time"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/failure"
)

// ErrInvalidPolicy is matched by every error returned from NewPolicy.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Policy is an immutable retry configuration. Construct it with
// NewPolicy; the zero value does not validate.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps every computed delay, before jitter.
	MaxDelay time.Duration

	// ExponentialBase is the per-attempt growth factor.
	ExponentialBase float64

	// Jitter enables the [0.5, 1.5) random scaling.
	Jitter bool

	// Transient lists the failure kinds that trigger a retry.
	Transient failure.Set
}

// DefaultPolicy returns the policy used when none is configured: three
// retries, 1s base, 60s cap, doubling, jitter on, retrying timeouts and
// connection failures only.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      3,
		BaseDelay:       time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2,
		Jitter:          true,
		Transient:       failure.Transient,
	}
}

// NoRetry returns a valid policy that makes a single attempt. Use it
// where a zero Policy would be replaced with DefaultPolicy.
func NoRetry() Policy {
	return Policy{ExponentialBase: 1}
}

// WithDefaults fills a zero ExponentialBase and MaxDelay from
// DefaultPolicy, so a policy that sets only MaxRetries and BaseDelay
// passes NewPolicy. MaxDelay is raised to BaseDelay when needed.
func (policy Policy) WithDefaults() Policy {
	defaults := DefaultPolicy()
	if policy.ExponentialBase == 0 {
		policy.ExponentialBase = defaults.ExponentialBase
	}
	if policy.MaxDelay == 0 {
		policy.MaxDelay = max(defaults.MaxDelay, policy.BaseDelay)
	}
	return policy
}

// NewPolicy validates policy and returns it. A zero Transient set is
// replaced with failure.Transient.
func NewPolicy(policy Policy) (Policy, error) {
	var errs []error
	if policy.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must be >= 0 (got %d)", policy.MaxRetries))
	}
	if policy.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("base delay must be >= 0 (got %v)", policy.BaseDelay))
	}
	if policy.MaxDelay < policy.BaseDelay {
		errs = append(errs, fmt.Errorf("max delay %v is less than base delay %v", policy.MaxDelay, policy.BaseDelay))
	}
	if policy.ExponentialBase < 1 {
		errs = append(errs, fmt.Errorf("exponential base must be >= 1 (got %v)", policy.ExponentialBase))
	}
	if len(errs) > 0 {
		return Policy{}, fmt.Errorf("backoff: %w: %w", ErrInvalidPolicy, errors.Join(errs...))
	}

	if policy.Transient == 0 {
		policy.Transient = failure.Transient
	}
	return policy, nil
}

// Delay returns the backoff before retry number attempt.
func (policy Policy) Delay(attempt int) time.Duration {
	return Delay(attempt, policy.BaseDelay, policy.MaxDelay, policy.ExponentialBase, policy.Jitter)
}

// Retryable reports whether err belongs to the policy's transient set.
func (policy Policy) Retryable(err error) bool {
	return err != nil && policy.Transient.Contains(failure.KindOf(err))
}
