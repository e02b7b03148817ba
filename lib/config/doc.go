// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads settings for the Taiga MCP server.
//
// Configuration comes from exactly one place: a file named by the
// --config flag (via [LoadFile]), a file named by the TAIGA_MCP_CONFIG
// environment variable (via [Load]), or, when neither is given, the
// TAIGA_* environment variables (via [FromEnvironment]). Sources are
// not layered on top of each other.
//
// Files ending in .yaml or .yml are parsed as YAML. Files ending in
// .json or .jsonc are parsed as JSON with comments and trailing
// commas allowed. Unknown keys are rejected in both formats.
//
// String fields that carry URLs or secrets are expanded after loading:
// ${VAR} and ${VAR:-default} are replaced from the process environment,
// so a checked-in file can reference a password without containing it.
//
// [Config.Validate] reports every invalid field at once, joined with
// errors.Join.
//
// This package depends on no other packages in this module.
package config
