// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for retry sleeps, cache expiry, and
// request latency.
type Clock interface {
	Now() time.Time

	// After fires once d has elapsed. A non-positive d fires
	// immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep blocks for d. Retry loops use After instead so a
	// canceled context interrupts the wait.
	Sleep(d time.Duration)
}
