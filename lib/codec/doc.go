// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR configuration used for binary
// snapshots such as the connection pool's metrics summary.
//
// JSON stays the format for everything a human or the Taiga API reads.
// CBOR is offered where a compact, deterministic encoding is useful:
// `taiga-mcp metrics --format cbor` writes one, and tests compare
// snapshots byte for byte. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2), so the same logical data always produces
// identical bytes.
//
// Types shared with JSON output carry only `json` tags; fxamacker/cbor
// reads them as a fallback when no `cbor` tag is present.
package codec
