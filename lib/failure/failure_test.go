// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"tagged", New(KindStatus, "GET /x", errors.New("boom")), KindStatus},
		{"tagged wrapped", fmt.Errorf("outer: %w", New(KindTimeout, "", errors.New("slow"))), KindTimeout},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"canceled", fmt.Errorf("request: %w", context.Canceled), KindCanceled},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutError{}}, KindTimeout},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, KindConnection},
		{"reset errno", syscall.ECONNRESET, KindConnection},
		{"dns", &net.DNSError{Err: "no such host", Name: "taiga.invalid"}, KindConnection},
		{"eof", &url.Error{Op: "Get", URL: "http://x", Err: io.EOF}, KindConnection},
		{"plain", errors.New("something else"), KindOther},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := KindOf(test.err); got != test.want {
				t.Errorf("KindOf(%v) = %s, want %s", test.err, got, test.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	if !Transient.Contains(KindTimeout) || !Transient.Contains(KindConnection) {
		t.Error("Transient must contain timeout and connection")
	}
	for _, kind := range []Kind{KindNone, KindCanceled, KindStatus, KindOther} {
		if Transient.Contains(kind) {
			t.Errorf("Transient unexpectedly contains %s", kind)
		}
	}

	custom := SetOf(KindStatus)
	if !custom.Contains(KindStatus) || custom.Contains(KindTimeout) {
		t.Errorf("SetOf(KindStatus) = %b", custom)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := New(KindConnection, "POST /auth", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if got := err.Error(); got != "POST /auth: connection failure: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if New(KindOther, "op", nil) != nil {
		t.Error("New with nil error should return nil")
	}
}
