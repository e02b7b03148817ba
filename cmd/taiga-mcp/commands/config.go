// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/cli"
)

func configCommand(streams Streams) *cli.Command {
	var params struct {
		ConnectionParams
	}
	return &cli.Command{
		Name:    "config",
		Summary: "Inspect configuration",
		Subcommands: []*cli.Command{{
			Name:    "check",
			Summary: "Load and validate the configuration",
			Description: `Load the configuration from the same source other commands use,
print it as YAML with secrets redacted, and validate it.

Exits 1 when validation fails, after listing every problem.`,
			Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("check", &params) },
			Run: func(ctx context.Context, args []string) error {
				cfg, err := params.load()
				if err != nil {
					return err
				}
				encoder := yaml.NewEncoder(streams.Stdout)
				encoder.SetIndent(2)
				if err := encoder.Encode(cfg.Redacted()); err != nil {
					return fmt.Errorf("writing config: %w", err)
				}
				if err := encoder.Close(); err != nil {
					return fmt.Errorf("writing config: %w", err)
				}
				if err := cfg.Validate(); err != nil {
					fmt.Fprintf(streams.Stderr, "invalid configuration:\n%v\n", err)
					return &cli.ExitError{Code: 1}
				}
				fmt.Fprintln(streams.Stderr, "configuration OK")
				return nil
			},
		}},
	}
}
