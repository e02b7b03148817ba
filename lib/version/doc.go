// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the taiga-mcp binary.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are injected at
// link time with -ldflags -X. When a release build does not inject the
// commit, [Current] falls back to the VCS stamp the Go toolchain
// embeds via runtime/debug.
package version
