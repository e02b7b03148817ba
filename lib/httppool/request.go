// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package httppool

import (
	"net/http"
	"net/url"
	"time"
)

// RequestOption customizes one request.
type RequestOption func(*request)

type request struct {
	query       url.Values
	header      http.Header
	body        []byte
	contentType string
	jsonValue   any
	hasJSON     bool
	timeout     time.Duration
}

// WithQuery adds query parameters. Repeated calls merge.
func WithQuery(query url.Values) RequestOption {
	return func(r *request) {
		if r.query == nil {
			r.query = url.Values{}
		}
		for key, values := range query {
			r.query[key] = append(r.query[key], values...)
		}
	}
}

// WithHeader sets a request header, overriding the session default of
// the same name.
func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		if r.header == nil {
			r.header = http.Header{}
		}
		r.header.Set(key, value)
	}
}

// WithHeaders sets every header in header.
func WithHeaders(header http.Header) RequestOption {
	return func(r *request) {
		if r.header == nil {
			r.header = http.Header{}
		}
		for key, values := range header {
			r.header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
}

// WithJSON encodes value as the JSON request body.
func WithJSON(value any) RequestOption {
	return func(r *request) {
		r.jsonValue = value
		r.hasJSON = true
		r.body = nil
	}
}

// WithBody sends data verbatim with the given content type. An empty
// contentType keeps the session default.
func WithBody(contentType string, data []byte) RequestOption {
	return func(r *request) {
		r.body = data
		r.contentType = contentType
		r.hasJSON = false
	}
}

// WithTimeout replaces the pool timeout for this request.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(r *request) { r.timeout = timeout }
}
