// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Everything that sleeps between retries (the backoff engine, the Taiga
// client's rate-limit and timeout handling) or measures call latency
// (the connection pool's metrics) takes a Clock instead of calling the
// time package directly. Real() is the production implementation.
// Fake() is a deterministic clock for tests:
//
//	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { done <- client.Do(ctx, "GET", "/projects") }()
//	fakeClock.WaitForTimers(1)          // the call is sleeping on Retry-After
//	fakeClock.Advance(5 * time.Second)  // release it
//
// WaitForTimers removes the race between a goroutine registering a
// sleep and the test advancing time.
package clock
