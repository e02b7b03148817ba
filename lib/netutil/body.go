// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil reads Taiga response bodies.
//
// Reads are capped at MaxResponseSize. ReadEncoded also reverses the
// Content-Encoding the connection pool negotiates (gzip, deflate,
// zstd); the pool turns off the transport's own gzip handling so it
// can advertise zstd too.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize caps a decoded response body at 256 MiB. Project
// exports are the largest bodies the API returns.
const MaxResponseSize int64 = 256 << 20

// ErrResponseTooLarge is returned when a body exceeds the read cap.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// ReadResponse reads all of body, failing with ErrResponseTooLarge
// rather than returning a truncated document.
func ReadResponse(body io.Reader) ([]byte, error) {
	return readLimited(body, MaxResponseSize)
}

func readLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}
