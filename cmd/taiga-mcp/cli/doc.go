// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the taiga-mcp binary.
//
// A [Command] either dispatches to Subcommands by the first positional
// argument or runs its Run function after parsing flags. Flags are
// declared as tagged struct fields and bound with [FlagsFromParams]:
//
//	var params struct {
//	    Project int64 `flag:"project,p" desc:"project id"`
//	}
//	command := &cli.Command{
//	    Name:  "list",
//	    Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
//	    Run:   func(ctx context.Context, args []string) error { ... },
//	}
//
// Unknown commands and flags produce an error with the closest valid
// spelling. A Run function that has already written its output and
// only needs a non-zero exit returns an [ExitError].
package cli
