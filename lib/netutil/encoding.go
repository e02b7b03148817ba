// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding is the Accept-Encoding value matching the codings
// ReadEncoded understands.
const AcceptEncoding = "gzip, deflate, zstd"

// ReadEncoded reads body (bounded by MaxResponseSize after decoding)
// and reverses contentEncoding. An empty or "identity" encoding
// returns the bytes as read. Multiple codings ("gzip, zstd") are
// undone in reverse order of application.
func ReadEncoded(body io.Reader, contentEncoding string) ([]byte, error) {
	codings := splitCodings(contentEncoding)
	if len(codings) == 0 {
		return ReadResponse(body)
	}

	data, err := ReadResponse(body)
	if err != nil {
		return nil, err
	}
	for index := len(codings) - 1; index >= 0; index-- {
		data, err = decode(data, codings[index])
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func splitCodings(header string) []string {
	var codings []string
	for _, part := range strings.Split(header, ",") {
		coding := strings.ToLower(strings.TrimSpace(part))
		if coding == "" || coding == "identity" {
			continue
		}
		codings = append(codings, coding)
	}
	return codings
}

func decode(data []byte, coding string) ([]byte, error) {
	source := bytes.NewReader(data)
	switch coding {
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(source)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer reader.Close()
		return readDecoded(reader, coding)
	case "deflate":
		reader, err := zlib.NewReader(source)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		defer reader.Close()
		return readDecoded(reader, coding)
	case "zstd":
		decoder, err := zstd.NewReader(source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer decoder.Close()
		return readDecoded(decoder, coding)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", coding)
	}
}

func readDecoded(reader io.Reader, coding string) ([]byte, error) {
	data, err := ReadResponse(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", coding, err)
	}
	return data, nil
}
