// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// taiga-mcp runs Taiga operations through the resilient API client.
// Run "taiga-mcp --help" for the command list.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that already printed their result return an
		// ExitError; don't add an "error:" line for those.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root(commands.StandardStreams()).Execute(ctx, os.Args[1:])
}
