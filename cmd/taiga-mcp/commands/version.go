// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/cli"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/version"
)

func versionCommand(streams Streams) *cli.Command {
	var params struct {
		JSON bool `flag:"json" desc:"output as JSON"`
	}
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("version", &params) },
		Run: func(_ context.Context, args []string) error {
			if params.JSON {
				return cli.WriteJSON(streams.Stdout, version.Current())
			}
			_, err := fmt.Fprintf(streams.Stdout, "taiga-mcp %s\n", version.Full())
			return err
		},
	}
}
