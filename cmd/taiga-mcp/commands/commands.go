// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the taiga-mcp command tree.
//
// Every command that talks to Taiga loads one configuration source
// (see [ConnectionParams]), opens an [appcontext.App], runs a single
// tool call, and prints its [taigatools.Result] as JSON on stdout. A
// failed result still prints and then exits 1 through a cli.ExitError.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/cli"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/appcontext"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taigatools"
)

// Streams are where commands write. Logs go to Stderr.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// StandardStreams returns the process stdout and stderr.
func StandardStreams() Streams {
	return Streams{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Root returns the full command tree.
func Root(streams Streams) *cli.Command {
	return &cli.Command{
		Name: "taiga-mcp",
		Description: `taiga-mcp: Taiga project management from the command line.

Runs Taiga operations through the same resilient client the MCP server
uses: pooled connections, token refresh on 401, Retry-After on 429,
and exponential backoff on timeouts. Results are printed as JSON.`,
		HelpOutput: streams.Stderr,
		Subcommands: []*cli.Command{
			authCommand(streams),
			projectCommand(streams),
			resourceCommand(streams, taigatools.KindUserStory, "story", "Manage user stories", allOperations),
			resourceCommand(streams, taigatools.KindIssue, "issue", "Manage issues", []operation{opList, opGet, opCreate}),
			tagCommand(streams),
			metricsCommand(streams),
			configCommand(streams),
			versionCommand(streams),
		},
	}
}

// emit prints result and converts a failed result into exit code 1.
func emit(streams Streams, result taigatools.Result) error {
	if err := cli.WriteJSON(streams.Stdout, result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	if !result.OK {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// withApp opens the application for params, authenticates when
// credentials are configured, and passes it to fn.
func withApp(ctx context.Context, streams Streams, params *ConnectionParams, fn func(*appcontext.App) taigatools.Result) error {
	app, err := params.open(ctx, streams)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.Authenticate(ctx); err != nil {
		return emit(streams, taigatools.Failure(err))
	}
	return emit(streams, fn(app))
}
