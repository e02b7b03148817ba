// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/cache"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/httppool"
)

// disablePagination asks Taiga to return whole collections. Cursor
// handling is left to callers that need it.
const disablePagination = "x-disable-pagination"

// GetJSON performs a GET and decodes the body into result.
func (client *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, result any) error {
	body, err := client.get(ctx, endpoint, query, false)
	if err != nil {
		return err
	}
	return decodeInto(endpoint, body, result)
}

// ListJSON performs a GET with pagination disabled and decodes the
// collection into result.
func (client *Client) ListJSON(ctx context.Context, endpoint string, query url.Values, result any) error {
	body, err := client.get(ctx, endpoint, query, true)
	if err != nil {
		return err
	}
	return decodeInto(endpoint, body, result)
}

// GetRaw performs a GET and returns the body bytes.
func (client *Client) GetRaw(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return client.get(ctx, endpoint, query, false)
}

// PostJSON sends body as JSON and decodes the response into result,
// which may be nil.
func (client *Client) PostJSON(ctx context.Context, endpoint string, body, result any) error {
	return client.sendJSON(ctx, http.MethodPost, endpoint, body, result)
}

// PutJSON sends body as JSON and decodes the response into result.
func (client *Client) PutJSON(ctx context.Context, endpoint string, body, result any) error {
	return client.sendJSON(ctx, http.MethodPut, endpoint, body, result)
}

// PatchJSON sends body as JSON and decodes the response into result.
func (client *Client) PatchJSON(ctx context.Context, endpoint string, body, result any) error {
	return client.sendJSON(ctx, http.MethodPatch, endpoint, body, result)
}

// Delete performs a DELETE. Taiga answers 204 with no body.
func (client *Client) Delete(ctx context.Context, endpoint string) error {
	_, err := client.Do(ctx, http.MethodDelete, endpoint)
	return err
}

// FetchJSON is GetJSON without the response cache: it always asks the
// server and does not store the answer. Used where a stale body would
// be wrong, such as reading the version for an update.
func (client *Client) FetchJSON(ctx context.Context, endpoint string, query url.Values, result any) error {
	body, err := client.fetch(ctx, endpoint, query, false)
	if err != nil {
		return err
	}
	return decodeInto(endpoint, body, result)
}

func (client *Client) get(ctx context.Context, endpoint string, query url.Values, list bool) ([]byte, error) {
	if client.cache == nil || !client.cache.Enabled() {
		return client.fetch(ctx, endpoint, query, list)
	}

	access, _ := client.Tokens()
	key := cache.NewKey(http.MethodGet, endpoint, query.Encode(), fmt.Sprint(list), access)
	if body, ok := client.cache.Get(key); ok {
		client.logger.Debug("cache hit", "endpoint", endpoint)
		return body, nil
	}

	// A mutation finishing while this GET is in flight invalidates the
	// cache; the body read here may predate it and must not be stored.
	generation := client.cache.Generation()
	body, err := client.fetch(ctx, endpoint, query, list)
	if err != nil {
		return nil, err
	}
	if !client.cache.SetIfGeneration(key, generation, body) {
		client.logger.Debug("response not cached, invalidated while in flight", "endpoint", endpoint)
	}
	return body, nil
}

func (client *Client) fetch(ctx context.Context, endpoint string, query url.Values, list bool) ([]byte, error) {
	var options []httppool.RequestOption
	if len(query) > 0 {
		options = append(options, httppool.WithQuery(query))
	}
	if list {
		options = append(options, httppool.WithHeader(disablePagination, "True"))
	}
	response, err := client.Do(ctx, http.MethodGet, endpoint, options...)
	if err != nil {
		return nil, err
	}
	return response.Body, nil
}

func (client *Client) sendJSON(ctx context.Context, method, endpoint string, body, result any) error {
	var options []httppool.RequestOption
	if body != nil {
		options = append(options, httppool.WithJSON(body))
	}
	response, err := client.Do(ctx, method, endpoint, options...)
	if err != nil {
		return err
	}
	return decodeInto(endpoint, response.Body, result)
}

// decodeInto unmarshals body into result. An empty body (204 No
// Content) leaves result untouched, which callers treat as an empty
// object.
func decodeInto(endpoint string, body []byte, result any) error {
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("taiga: decoding %s response: %w", endpoint, err)
	}
	return nil
}
