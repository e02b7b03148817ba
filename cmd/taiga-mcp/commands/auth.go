// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/cli"
)

func authCommand(streams Streams) *cli.Command {
	var params struct {
		ConnectionParams
	}
	return &cli.Command{
		Name:    "auth",
		Summary: "Authenticate against Taiga",
		Subcommands: []*cli.Command{{
			Name:    "login",
			Summary: "Exchange username and password for tokens",
			Description: `Log in with the configured username and password.

Prints whether authentication succeeded and whether a refresh token was
issued. Tokens themselves are never printed.`,
			Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("login", &params) },
			Run: func(ctx context.Context, args []string) error {
				app, err := params.open(ctx, streams)
				if err != nil {
					return err
				}
				defer app.Close()
				return emit(streams, app.Tools.Login(ctx))
			},
		}},
	}
}

