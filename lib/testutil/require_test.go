// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// recorder captures Fatalf without stopping the calling goroutine's
// test. Fatalf panics so the helper under test stops as it would
// under runtime.Goexit.
type recorder struct {
	message string
}

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
	panic(r)
}

func capture(fn func(*recorder)) (message string) {
	r := &recorder{}
	defer func() {
		if recovered := recover(); recovered != nil && recovered != r {
			panic(recovered)
		}
		message = r.message
	}()
	fn(r)
	return ""
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Errorf("RequireReceive = %d, want 7", got)
	}

	message := capture(func(r *recorder) {
		RequireReceive(r, make(chan int), 10*time.Millisecond, "waiting for %s", "result")
	})
	if message != "timed out after 10ms: waiting for result" {
		t.Errorf("timeout message = %q", message)
	}

	closed := make(chan int)
	close(closed)
	message = capture(func(r *recorder) { RequireReceive(r, closed, time.Second) })
	if message != "channel closed without sending a value: (no message)" {
		t.Errorf("closed message = %q", message)
	}
}

func TestRequireClosed(t *testing.T) {
	ready := make(chan struct{})
	close(ready)
	RequireClosed(t, ready, time.Second, "ready")

	message := capture(func(r *recorder) { RequireClosed(r, make(chan struct{}), 10*time.Millisecond, 42) })
	if message != "timed out after 10ms waiting for channel close: 42" {
		t.Errorf("message = %q", message)
	}
}
