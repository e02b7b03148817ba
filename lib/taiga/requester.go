// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"net/url"
)

// Requester is the call surface the resource services and tool
// adapters depend on. *Client implements it against the live API;
// taigatest.Requester implements it in memory.
type Requester interface {
	// GetJSON decodes a single resource into result.
	GetJSON(ctx context.Context, endpoint string, query url.Values, result any) error

	// FetchJSON is GetJSON that never answers from a response cache.
	FetchJSON(ctx context.Context, endpoint string, query url.Values, result any) error

	// ListJSON decodes an unpaginated collection into result.
	ListJSON(ctx context.Context, endpoint string, query url.Values, result any) error

	// GetRaw returns the response body undecoded.
	GetRaw(ctx context.Context, endpoint string, query url.Values) ([]byte, error)

	PostJSON(ctx context.Context, endpoint string, body, result any) error
	PutJSON(ctx context.Context, endpoint string, body, result any) error
	PatchJSON(ctx context.Context, endpoint string, body, result any) error
	Delete(ctx context.Context, endpoint string) error
}

var _ Requester = (*Client)(nil)
