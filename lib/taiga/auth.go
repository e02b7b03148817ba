// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/httppool"
)

const (
	authEndpoint    = "/auth"
	refreshEndpoint = "/auth/refresh"
)

type authResponse struct {
	AuthToken string `json:"auth_token"`
	Refresh   string `json:"refresh"`
}

// Authenticate logs in with the configured username and password
// ({"type": "normal"} auth) and stores the returned token pair.
func (client *Client) Authenticate(ctx context.Context) error {
	if !client.HasCredentials() {
		return &AuthenticationError{Message: "username and password are required"}
	}
	payload, err := client.postAuth(ctx, authEndpoint, map[string]string{
		"type":     "normal",
		"username": client.username,
		"password": client.password,
	})
	if err != nil {
		client.logger.Warn("authentication failed", "username", client.username, "error", err)
		return err
	}
	client.logger.Info("authenticated", "username", client.username)
	client.SetTokens(payload.AuthToken, payload.Refresh)
	return nil
}

// RefreshToken exchanges the held refresh token for a new token pair.
// Concurrent callers share one in-flight request. The shared request
// is not tied to any one caller's cancellation; each caller stops
// waiting when its own ctx ends.
func (client *Client) RefreshToken(ctx context.Context) error {
	results := client.refreshGroup.DoChan("refresh", func() (any, error) {
		return nil, client.refresh(context.WithoutCancel(ctx))
	})
	select {
	case result := <-results:
		if result.Shared {
			client.logger.Debug("token refresh shared with concurrent caller")
		}
		return result.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (client *Client) refresh(ctx context.Context) error {
	_, refresh := client.Tokens()
	if refresh == "" {
		return &AuthenticationError{Message: "no refresh token held"}
	}
	payload, err := client.postAuth(ctx, refreshEndpoint, map[string]string{"refresh": refresh})
	if err != nil {
		client.logger.Warn("token refresh failed", "error", err)
		return err
	}
	client.logger.Debug("token refreshed")
	if payload.Refresh == "" {
		payload.Refresh = refresh
	}
	client.SetTokens(payload.AuthToken, payload.Refresh)
	return nil
}

// postAuth sends an unauthenticated POST to an auth endpoint. These
// calls bypass Do: a 401 here means the credentials are wrong, not
// that a refresh is due.
func (client *Client) postAuth(ctx context.Context, endpoint string, body any) (*authResponse, error) {
	if err := client.throttle(ctx); err != nil {
		return nil, err
	}
	response, err := client.pool.Post(ctx, endpoint, httppool.WithJSON(body))
	if err != nil {
		return nil, transportError(http.MethodPost, endpoint, err)
	}
	switch response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: errorMessage(response.Body)}
	}
	if !response.OK() {
		return nil, newAPIError(http.MethodPost, endpoint, response.StatusCode, response.Body)
	}

	var payload authResponse
	if err := json.Unmarshal(response.Body, &payload); err != nil {
		return nil, &AuthenticationError{
			StatusCode: response.StatusCode,
			Message:    "decoding auth response",
			Err:        fmt.Errorf("decoding auth response: %w", err),
		}
	}
	if payload.AuthToken == "" {
		return nil, &AuthenticationError{StatusCode: response.StatusCode, Message: "response carried no auth_token"}
	}
	return &payload, nil
}
