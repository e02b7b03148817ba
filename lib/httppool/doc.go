// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package httppool manages the single shared HTTP session used to talk
// to the Taiga API.
//
// A [Pool] owns at most one live [Session]: an http.Client over a
// keep-alive http.Transport bounded by MaxConnections (total
// concurrent connections to the host) and MaxKeepAlive (idle
// connections retained for reuse). The lifecycle is explicit:
//
//	pool, err := httppool.New(httppool.Config{BaseURL: "https://taiga.example/api/v1"})
//	...
//	pool.Start()        // idempotent
//	defer pool.Stop()   // idempotent; closes idle connections
//
// Any number of clients may borrow the session concurrently through
// [Pool.Acquire] or [Pool.WithSession]. Borrowing never tears the
// session down; only Stop does, and a later Start allocates a fresh
// one.
//
// Requests go through the verb helpers ([Pool.Get], [Pool.Post],
// [Pool.Put], [Pool.Patch], [Pool.Delete]) or [Pool.Do]. Each request
// carries the pool timeout unless [WithTimeout] overrides it, reads
// the full body (decoding gzip, deflate, and zstd), and records a
// [CallMetric] whether it succeeded or not. Transport failures are
// returned as *failure.Error values tagged with a [failure.Kind], so
// retry layers above can classify them without inspecting net errors.
//
// The pool serializes nothing per request. A mutex guards lifecycle
// transitions and a second one guards the metrics aggregate; the
// transport multiplexes requests within the configured ceilings.
package httppool
