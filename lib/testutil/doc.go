// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds test helpers shared across packages.
//
// The Require* functions put a wall-clock bound on channel operations
// in tests that otherwise run on a fake clock, so a bug that leaves a
// goroutine blocked fails the test instead of hanging it.
package testutil
