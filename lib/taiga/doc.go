// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package taiga is a client for the Taiga project-management REST API.
//
// [Client] is the call orchestrator. Every request goes through
// [Client.Do], which runs an explicit bounded loop over one logical
// call:
//
//   - the bearer token is attached when one is held;
//   - 429 responses sleep for Retry-After seconds (5 when absent) and
//     retry;
//   - timeouts sleep for the retry policy's exponential backoff and
//     retry;
//   - a 401 on the first attempt triggers one token refresh and a
//     retry; a 401 after any retry is final.
//
// 429 and timeout retries draw on one budget, the policy's MaxRetries.
// Every other failure is returned at once as a typed error: [APIError]
// (with [ErrNotFound], [ErrPermissionDenied] and [ErrRateLimited]
// matching through errors.Is), [AuthenticationError], or
// [TimeoutError].
//
// The client sits on an [httppool.Pool]. A pool passed in Config is
// borrowed and never stopped by the client; otherwise the client owns
// one and stops it on Close.
//
// [Resources] wraps any [Requester] with typed services for projects,
// user stories, issues, tasks, epics, and milestones. List calls
// disable Taiga's pagination and return whole collections.
package taiga
