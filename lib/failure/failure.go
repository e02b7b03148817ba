// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package failure classifies transport-level failures into a closed set
// of kinds. Retry decisions match on a Kind rather than on concrete
// error types, so the connection pool, the retry engine, and the Taiga
// client agree on what "transient" means without sharing error
// hierarchies.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Kind is a failure classification. The set is closed: every error is
// mapped to exactly one Kind by KindOf.
type Kind uint8

const (
	// KindNone is the classification of a nil error.
	KindNone Kind = iota

	// KindTimeout covers request deadlines and transport read/write
	// timeouts.
	KindTimeout

	// KindConnection covers refused, reset, and unreachable
	// connections and DNS failures.
	KindConnection

	// KindCanceled is a caller-initiated context cancellation. Never
	// transient: the caller asked to stop.
	KindCanceled

	// KindStatus is an HTTP response with an error status code.
	KindStatus

	// KindOther is anything not covered above.
	KindOther
)

// String returns the lowercase name of the kind, used in log
// attributes.
func (kind Kind) String() string {
	switch kind {
	case KindNone:
		return "none"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindCanceled:
		return "canceled"
	case KindStatus:
		return "status"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(kind))
	}
}

// Set is a bitmask of kinds.
type Set uint16

// SetOf builds a Set containing the given kinds.
func SetOf(kinds ...Kind) Set {
	var set Set
	for _, kind := range kinds {
		set |= 1 << kind
	}
	return set
}

// Contains reports whether kind is in the set.
func (set Set) Contains(kind Kind) bool {
	return set&(1<<kind) != 0
}

// Transient is the default set of kinds worth retrying: timeouts and
// connection failures. HTTP status failures are deliberately absent.
var Transient = SetOf(KindTimeout, KindConnection)

// Error is a failure tagged with its kind. Op names the operation that
// failed (for example "GET /projects").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// New tags err with kind. Returns nil if err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf classifies err. An explicit *Error anywhere in the chain wins;
// otherwise the chain is inspected for context, net, and syscall
// errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED,
			syscall.EHOSTUNREACH, syscall.ENETUNREACH, syscall.EPIPE:
			return KindConnection
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "EOF") {
		// Server closed a kept-alive connection mid-request.
		return KindConnection
	}

	return KindOther
}
