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

func projectCommand(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "project",
		Summary: "Manage projects",
		Subcommands: []*cli.Command{
			projectListCommand(streams),
			projectGetCommand(streams),
			projectCreateCommand(streams),
			deleteCommand(streams, taigatools.KindProject, "project"),
			projectByIDCommand(streams, "stats", "Show point and milestone statistics",
				func(ctx context.Context, tools *taigatools.Tools, id int64) taigatools.Result {
					return tools.ProjectStats(ctx, id)
				}),
			projectByIDCommand(streams, "export", "Dump a project as JSON",
				func(ctx context.Context, tools *taigatools.Tools, id int64) taigatools.Result {
					return tools.ExportProject(ctx, id)
				}),
		},
	}
}

func projectListCommand(streams Streams) *cli.Command {
	var params struct {
		ConnectionParams
		Filter []string `flag:"filter" desc:"key=value query filter, repeatable (e.g. member=5)"`
	}
	return &cli.Command{
		Name:    "list",
		Summary: "List projects visible to the current user",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(ctx context.Context, args []string) error {
			parsed, err := filters(params.Filter)
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.List(ctx, taigatools.KindProject, taigatools.ListParams{Filters: parsed})
			})
		},
	}
}

func projectGetCommand(streams Streams) *cli.Command {
	var params struct {
		ConnectionParams
		Slug string `flag:"slug" desc:"look up by slug instead of id"`
	}
	return &cli.Command{
		Name:    "get",
		Summary: "Show a project by id or slug",
		Usage:   "taiga-mcp project get ID | --slug SLUG",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("get", &params) },
		Run: func(ctx context.Context, args []string) error {
			if params.Slug != "" {
				return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
					return app.Tools.ProjectBySlug(ctx, params.Slug)
				})
			}
			id, err := parseID(args)
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.Get(ctx, taigatools.KindProject, id)
			})
		},
	}
}

func projectCreateCommand(streams Streams) *cli.Command {
	var params struct {
		ConnectionParams
		fieldParams
		Name        string `flag:"name" desc:"project name"`
		Description string `flag:"description" desc:"project description"`
	}
	return &cli.Command{
		Name:    "create",
		Summary: "Create a project",
		Usage:   "taiga-mcp project create --name NAME [--description TEXT] [--set field=value]...",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("create", &params) },
		Run: func(ctx context.Context, args []string) error {
			fields, err := params.fields()
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			if params.Name != "" {
				fields["name"] = params.Name
			}
			if params.Description != "" {
				fields["description"] = params.Description
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.Create(ctx, taigatools.KindProject, fields)
			})
		},
	}
}

func projectByIDCommand(streams Streams, name, summary string, run func(context.Context, *taigatools.Tools, int64) taigatools.Result) *cli.Command {
	var params struct {
		ConnectionParams
	}
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "taiga-mcp project " + name + " ID",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams(name, &params) },
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return run(ctx, app.Tools, id)
			})
		},
	}
}
