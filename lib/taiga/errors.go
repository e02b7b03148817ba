// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Every error the client returns matches at most one
// of these through errors.Is.
var (
	ErrConfiguration    = errors.New("taiga: invalid configuration")
	ErrAuthentication   = errors.New("taiga: authentication failed")
	ErrPermissionDenied = errors.New("taiga: permission denied")
	ErrNotFound         = errors.New("taiga: not found")
	ErrRateLimited      = errors.New("taiga: rate limit exceeded")
	ErrTimeout          = errors.New("taiga: request timed out")
)

// APIError is a failed Taiga API call: either a non-2xx response or,
// with StatusCode 0, a transport failure wrapped in Err.
type APIError struct {
	Method   string
	Endpoint string

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	// Message is Taiga's _error_message, or the flattened field errors
	// of a validation response, or the raw body.
	Message string

	// Body is the raw response body.
	Body string

	Err error
}

func (err *APIError) Error() string {
	if err.StatusCode == 0 {
		return fmt.Sprintf("taiga: %s %s: %v", err.Method, err.Endpoint, err.Err)
	}
	return fmt.Sprintf("taiga: %s %s: HTTP %d: %s", err.Method, err.Endpoint, err.StatusCode, err.Message)
}

func (err *APIError) Unwrap() error { return err.Err }

// Is maps the status code onto the sentinel errors.
func (err *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return err.StatusCode == 404
	case ErrPermissionDenied:
		return err.StatusCode == 403
	case ErrRateLimited:
		return err.StatusCode == 429
	case ErrAuthentication:
		return err.StatusCode == 401
	}
	return false
}

// AuthenticationError is returned when credentials or tokens are
// rejected, or when a refresh is needed but impossible.
type AuthenticationError struct {
	// StatusCode is the rejecting status, or 0 when the client gave up
	// without asking the server.
	StatusCode int
	Message    string
	Err        error
}

func (err *AuthenticationError) Error() string {
	if err.StatusCode == 0 {
		return "taiga: authentication failed: " + err.Message
	}
	return fmt.Sprintf("taiga: authentication failed: HTTP %d: %s", err.StatusCode, err.Message)
}

func (err *AuthenticationError) Unwrap() error { return err.Err }

func (err *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// TimeoutError is returned when a request timed out on its last
// permitted attempt.
type TimeoutError struct {
	Method   string
	Endpoint string

	// Retries is how many retries had been spent when the client gave
	// up, counting rate-limit retries.
	Retries int

	Err error
}

func (err *TimeoutError) Error() string {
	return fmt.Sprintf("taiga: %s %s: timed out after %d retries: %v", err.Method, err.Endpoint, err.Retries, err.Err)
}

func (err *TimeoutError) Unwrap() error { return err.Err }

func (err *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ConfigError reports one invalid client setting.
type ConfigError struct {
	Field string
	Err   error
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("taiga: config %s: %v", err.Field, err.Err)
}

func (err *ConfigError) Unwrap() error { return err.Err }

func (err *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// IsNotFound reports whether err is a 404 from the Taiga API.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsPermissionDenied reports whether err is a 403 from the Taiga API.
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }

// IsRateLimited reports whether err is a 429 that outlasted the retry
// budget.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }

// IsTimeout reports whether err is a timeout that outlasted the retry
// budget.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError.StatusCode
	}
	var authError *AuthenticationError
	if errors.As(err, &authError) {
		return authError.StatusCode
	}
	return 0
}

func newAPIError(method, endpoint string, statusCode int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    errorMessage(body),
		Body:       string(body),
	}
}

// errorMessage extracts a readable message from a Taiga error body.
// Taiga reports generic failures as {"_error_message": ...} and
// validation failures as {"field": ["problem", ...]}.
func errorMessage(body []byte) string {
	var wire map[string]json.RawMessage
	if json.Unmarshal(body, &wire) != nil {
		return strings.TrimSpace(string(body))
	}
	for _, key := range []string{"_error_message", "detail"} {
		var message string
		if raw, ok := wire[key]; ok && json.Unmarshal(raw, &message) == nil && message != "" {
			return message
		}
	}

	var fields []string
	for field, raw := range wire {
		if strings.HasPrefix(field, "_") {
			continue
		}
		var problems []string
		if json.Unmarshal(raw, &problems) == nil && len(problems) > 0 {
			fields = append(fields, field+": "+strings.Join(problems, " "))
		}
	}
	if len(fields) > 0 {
		sort.Strings(fields)
		return strings.Join(fields, "; ")
	}
	return strings.TrimSpace(string(body))
}
