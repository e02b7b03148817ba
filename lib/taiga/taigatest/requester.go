// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package taigatest provides test doubles for code built on the taiga
// package: an in-memory [Requester] and an httptest-backed mock Taiga
// API ([Server]).
package taigatest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taiga"
)

// Call records one request made through a Requester.
type Call struct {
	Method   string
	Endpoint string
	Query    url.Values
	Body     any
}

type reply struct {
	value any
	err   error
}

// Requester is an in-memory taiga.Requester. Replies are registered
// per method and endpoint; unregistered requests fail with a 404
// *taiga.APIError. Safe for concurrent use.
type Requester struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []Call
}

var _ taiga.Requester = (*Requester)(nil)

// NewRequester returns a Requester with no replies registered.
func NewRequester() *Requester {
	return &Requester{replies: make(map[string]reply)}
}

// Respond registers value (JSON-encoded, then decoded into the
// caller's result) as the reply to method on endpoint.
func (r *Requester) Respond(method, endpoint string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[method+" "+endpoint] = reply{value: value}
}

// Fail registers err as the reply to method on endpoint.
func (r *Requester) Fail(method, endpoint string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[method+" "+endpoint] = reply{err: err}
}

// Calls returns every recorded call in order.
func (r *Requester) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallCount returns how many times method was called on endpoint.
func (r *Requester) CallCount(method, endpoint string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, call := range r.calls {
		if call.Method == method && call.Endpoint == endpoint {
			count++
		}
	}
	return count
}

func (r *Requester) call(method, endpoint string, query url.Values, body, result any) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Method: method, Endpoint: endpoint, Query: query, Body: body})
	registered, ok := r.replies[method+" "+endpoint]
	r.mu.Unlock()

	if !ok {
		return &taiga.APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: http.StatusNotFound,
			Message:    "no reply registered",
		}
	}
	if registered.err != nil {
		return registered.err
	}
	if result == nil || registered.value == nil {
		return nil
	}
	data, err := json.Marshal(registered.value)
	if err != nil {
		return fmt.Errorf("taigatest: encoding reply for %s %s: %w", method, endpoint, err)
	}
	if raw, ok := result.(*[]byte); ok {
		*raw = data
		return nil
	}
	return json.Unmarshal(data, result)
}

func (r *Requester) GetJSON(ctx context.Context, endpoint string, query url.Values, result any) error {
	return r.call(http.MethodGet, endpoint, query, nil, result)
}

func (r *Requester) FetchJSON(ctx context.Context, endpoint string, query url.Values, result any) error {
	return r.call(http.MethodGet, endpoint, query, nil, result)
}

func (r *Requester) ListJSON(ctx context.Context, endpoint string, query url.Values, result any) error {
	return r.call(http.MethodGet, endpoint, query, nil, result)
}

// GetRaw returns the registered value JSON-encoded, or the bytes
// themselves when a []byte was registered.
func (r *Requester) GetRaw(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	var data []byte
	r.mu.Lock()
	registered := r.replies[http.MethodGet+" "+endpoint]
	r.mu.Unlock()
	if raw, ok := registered.value.([]byte); ok {
		if err := r.call(http.MethodGet, endpoint, query, nil, nil); err != nil {
			return nil, err
		}
		return raw, nil
	}
	if err := r.call(http.MethodGet, endpoint, query, nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Requester) PostJSON(ctx context.Context, endpoint string, body, result any) error {
	return r.call(http.MethodPost, endpoint, nil, body, result)
}

func (r *Requester) PutJSON(ctx context.Context, endpoint string, body, result any) error {
	return r.call(http.MethodPut, endpoint, nil, body, result)
}

func (r *Requester) PatchJSON(ctx context.Context, endpoint string, body, result any) error {
	return r.call(http.MethodPatch, endpoint, nil, body, result)
}

func (r *Requester) Delete(ctx context.Context, endpoint string) error {
	return r.call(http.MethodDelete, endpoint, nil, nil, nil)
}
