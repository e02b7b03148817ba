// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Delay returns the backoff before retry number attempt (zero-based).
// The deterministic value is min(base * exponentialBase^attempt, max).
// With jitter, it is scaled by a uniform factor in [0.5, 1.5).
//
// The product is computed in float64 and capped before conversion, so
// very large attempts saturate at max instead of overflowing.
func Delay(attempt int, base, max time.Duration, exponentialBase float64, jitter bool) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	raw := float64(base) * math.Pow(exponentialBase, float64(attempt))
	if math.IsInf(raw, 0) || math.IsNaN(raw) || raw > float64(max) {
		raw = float64(max)
	}
	if jitter {
		raw *= 0.5 + rand.Float64()
	}
	return time.Duration(raw)
}
