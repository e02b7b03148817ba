// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package taigatools adapts Taiga operations into flat tool results.
//
// Each tool method runs one operation through a [taiga.Requester] and
// returns a [Result] instead of an error: ok plus data on success, or
// a readable message with a [Category] and a retryable flag on
// failure. An MCP layer can serialize a Result as the tool's content
// without inspecting Go error types.
package taigatools

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taiga"
)

// Category classifies tool failures so callers can decide whether to
// fix input, re-authenticate, back off, or escalate.
type Category string

const (
	// CategoryValidation means the input was missing or rejected by
	// Taiga (HTTP 400). Fix the input before retrying.
	CategoryValidation Category = "validation"

	// CategoryNotFound means a referenced resource does not exist.
	CategoryNotFound Category = "not_found"

	// CategoryForbidden means the token lacks permission.
	CategoryForbidden Category = "forbidden"

	// CategoryAuthentication means credentials or tokens were rejected.
	CategoryAuthentication Category = "authentication"

	// CategoryRateLimited means Taiga kept answering 429 past the
	// retry budget.
	CategoryRateLimited Category = "rate_limited"

	// CategoryTransient covers timeouts, connection failures, and 5xx
	// responses.
	CategoryTransient Category = "transient"

	// CategoryInternal is everything else.
	CategoryInternal Category = "internal"
)

// Result is the flat payload every tool returns.
type Result struct {
	OK        bool     `json:"ok"`
	Data      any      `json:"data,omitempty"`
	Error     string   `json:"error,omitempty"`
	Category  Category `json:"category,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// Success wraps data in an ok Result.
func Success(data any) Result {
	return Result{OK: true, Data: data}
}

// Failure converts err into a failed Result.
func Failure(err error) Result {
	category, retryable := Classify(err)
	return Result{
		Error:     err.Error(),
		Category:  category,
		Retryable: retryable,
	}
}

// From returns Success(data) when err is nil and Failure(err)
// otherwise.
func From(data any, err error) Result {
	if err != nil {
		return Failure(err)
	}
	return Success(data)
}

// InputError reports a missing or malformed tool argument.
type InputError struct {
	Field   string
	Message string
}

func (err *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Message)
}

func missing(field string) error {
	return &InputError{Field: field, Message: "is required"}
}

// Classify maps err onto a category and whether retrying the same call
// may succeed.
func Classify(err error) (Category, bool) {
	var inputError *InputError
	switch {
	case err == nil:
		return "", false
	case errors.As(err, &inputError):
		return CategoryValidation, false
	case taiga.IsNotFound(err):
		return CategoryNotFound, false
	case taiga.IsPermissionDenied(err):
		return CategoryForbidden, false
	case taiga.IsAuthentication(err):
		return CategoryAuthentication, false
	case taiga.IsRateLimited(err):
		return CategoryRateLimited, true
	case taiga.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return CategoryTransient, true
	case errors.Is(err, taiga.ErrConfiguration):
		return CategoryInternal, false
	}

	var apiError *taiga.APIError
	if errors.As(err, &apiError) {
		switch {
		case apiError.StatusCode == 0:
			return CategoryTransient, true
		case apiError.StatusCode == http.StatusBadRequest:
			return CategoryValidation, false
		case apiError.StatusCode >= 500:
			return CategoryTransient, true
		}
	}
	return CategoryInternal, false
}
