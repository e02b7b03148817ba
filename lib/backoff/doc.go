// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package backoff computes exponential retry delays and retries
// operations that fail with transient errors.
//
// [Delay] is the pure calculator: min(base * exponentialBase^attempt,
// max), optionally scaled by a uniform jitter factor in [0.5, 1.5) so
// that concurrent clients do not retry in lockstep.
//
// A [Policy] carries the calculator's parameters plus the set of
// [failure.Kind] values worth retrying. Policies are validated once by
// [NewPolicy] and never mutated afterwards.
//
// A [Retrier] binds a policy to a clock and a logger. [Retrier.Execute]
// runs an operation under the policy, [Retrier.Wrap] returns a
// decorated operation, and [Value] is the generic form for operations
// that produce a result. All three share one loop.
package backoff
