// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/cli"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/appcontext"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taigatools"
)

type tagParams struct {
	ConnectionParams
	Project int64  `flag:"project,p" desc:"project id (required)"`
	Name    string `flag:"name" desc:"tag name"`
	Color   string `flag:"color" desc:"hex color such as #ff0000"`
	To      string `flag:"to" desc:"new tag name (edit only)"`
}

func tagCommand(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "tag",
		Summary: "Manage project tags",
		Subcommands: []*cli.Command{
			tagSubcommand(streams, "list", "List a project's tags", func(ctx context.Context, tools *taigatools.Tools, p *tagParams) taigatools.Result {
				return tools.ListTags(ctx, p.Project)
			}),
			tagSubcommand(streams, "create", "Add a tag", func(ctx context.Context, tools *taigatools.Tools, p *tagParams) taigatools.Result {
				return tools.CreateTag(ctx, p.Project, p.Name, p.Color)
			}),
			tagSubcommand(streams, "edit", "Rename or recolor a tag", func(ctx context.Context, tools *taigatools.Tools, p *tagParams) taigatools.Result {
				return tools.EditTag(ctx, p.Project, p.Name, p.To, p.Color)
			}),
			tagSubcommand(streams, "delete", "Remove a tag", func(ctx context.Context, tools *taigatools.Tools, p *tagParams) taigatools.Result {
				return tools.DeleteTag(ctx, p.Project, p.Name)
			}),
		},
	}
}

func tagSubcommand(streams Streams, name, summary string, run func(context.Context, *taigatools.Tools, *tagParams) taigatools.Result) *cli.Command {
	var params tagParams
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams(name, &params) },
		Run: func(ctx context.Context, args []string) error {
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return run(ctx, app.Tools, &params)
			})
		},
	}
}
