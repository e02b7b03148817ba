// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package httppool

import (
	"encoding/json"
	"net/http"
)

// Response is a fully read HTTP response. Body is already decoded from
// any Content-Encoding.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}
