// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/cli"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/appcontext"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taiga"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taigatools"
)

type operation int

const (
	opList operation = iota
	opGet
	opCreate
	opUpdate
	opDelete
)

var allOperations = []operation{opList, opGet, opCreate, opUpdate, opDelete}

// fieldParams collects an entity payload from --data and --set.
type fieldParams struct {
	Data string   `flag:"data" desc:"JSON object with the fields to send"`
	Set  []string `flag:"set" desc:"field=value, repeatable; value is parsed as JSON when valid"`
}

// fields merges --data and then --set into one payload.
func (p *fieldParams) fields() (taiga.Fields, error) {
	fields := taiga.Fields{}
	if p.Data != "" {
		if err := json.Unmarshal([]byte(p.Data), &fields); err != nil {
			return nil, &taigatools.InputError{Field: "data", Message: "must be a JSON object: " + err.Error()}
		}
	}
	for _, assignment := range p.Set {
		key, raw, ok := strings.Cut(assignment, "=")
		if !ok || key == "" {
			return nil, &taigatools.InputError{Field: "set", Message: fmt.Sprintf("%q is not field=value", assignment)}
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		fields[key] = value
	}
	return fields, nil
}

// filters parses key=value pairs into list filters.
func filters(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, &taigatools.InputError{Field: "filter", Message: fmt.Sprintf("%q is not key=value", pair)}
		}
		result[key] = value
	}
	return result, nil
}

// parseID reads the single positional id argument.
func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, &taigatools.InputError{Field: "id", Message: fmt.Sprintf("expected exactly one id argument, got %d", len(args))}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, &taigatools.InputError{Field: "id", Message: fmt.Sprintf("%q is not a positive integer", args[0])}
	}
	return id, nil
}

// resourceCommand builds list/get/create/update/delete subcommands for
// a project-scoped collection.
func resourceCommand(streams Streams, kind taigatools.Kind, name, summary string, operations []operation) *cli.Command {
	command := &cli.Command{Name: name, Summary: summary}
	for _, op := range operations {
		switch op {
		case opList:
			command.Subcommands = append(command.Subcommands, listCommand(streams, kind, name))
		case opGet:
			command.Subcommands = append(command.Subcommands, getCommand(streams, kind, name))
		case opCreate:
			command.Subcommands = append(command.Subcommands, createCommand(streams, kind, name))
		case opUpdate:
			command.Subcommands = append(command.Subcommands, updateCommand(streams, kind, name))
		case opDelete:
			command.Subcommands = append(command.Subcommands, deleteCommand(streams, kind, name))
		}
	}
	return command
}

func listCommand(streams Streams, kind taigatools.Kind, name string) *cli.Command {
	var params struct {
		ConnectionParams
		Project int64    `flag:"project,p" desc:"project id (required)"`
		Filter  []string `flag:"filter" desc:"key=value query filter, repeatable"`
	}
	return &cli.Command{
		Name:    "list",
		Summary: "List " + name + " items in a project",
		Usage:   fmt.Sprintf("taiga-mcp %s list --project ID [--filter key=value]...", name),
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(ctx context.Context, args []string) error {
			parsed, err := filters(params.Filter)
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.List(ctx, kind, taigatools.ListParams{ProjectID: params.Project, Filters: parsed})
			})
		},
	}
}

func getCommand(streams Streams, kind taigatools.Kind, name string) *cli.Command {
	var params struct {
		ConnectionParams
	}
	return &cli.Command{
		Name:    "get",
		Summary: "Show one " + name,
		Usage:   fmt.Sprintf("taiga-mcp %s get ID", name),
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("get", &params) },
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.Get(ctx, kind, id)
			})
		},
	}
}

func createCommand(streams Streams, kind taigatools.Kind, name string) *cli.Command {
	var params struct {
		ConnectionParams
		fieldParams
		Project     int64  `flag:"project,p" desc:"project id"`
		Subject     string `flag:"subject" desc:"subject line"`
		Description string `flag:"description" desc:"description text"`
	}
	return &cli.Command{
		Name:    "create",
		Summary: "Create a " + name,
		Usage:   fmt.Sprintf("taiga-mcp %s create --project ID --subject TEXT [--set field=value]...", name),
		Examples: []cli.Example{{
			Description: "Create with extra fields",
			Command:     fmt.Sprintf(`taiga-mcp %s create -p 3 --subject "Login page" --set tags='["ui"]'`, name),
		}},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("create", &params) },
		Run: func(ctx context.Context, args []string) error {
			fields, err := params.fields()
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			if params.Project > 0 {
				fields["project"] = params.Project
			}
			if params.Subject != "" {
				fields["subject"] = params.Subject
			}
			if params.Description != "" {
				fields["description"] = params.Description
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.Create(ctx, kind, fields)
			})
		},
	}
}

func updateCommand(streams Streams, kind taigatools.Kind, name string) *cli.Command {
	var params struct {
		ConnectionParams
		fieldParams
	}
	return &cli.Command{
		Name:    "update",
		Summary: "Update a " + name,
		Description: fmt.Sprintf(`Update fields of a %s.

The current version is fetched automatically unless --set version=N
is given.`, name),
		Usage: fmt.Sprintf("taiga-mcp %s update ID --set field=value...", name),
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("update", &params) },
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			fields, err := params.fields()
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.Update(ctx, kind, id, fields)
			})
		},
	}
}

func deleteCommand(streams Streams, kind taigatools.Kind, name string) *cli.Command {
	var params struct {
		ConnectionParams
	}
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a " + name,
		Usage:   fmt.Sprintf("taiga-mcp %s delete ID", name),
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("delete", &params) },
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return emit(streams, taigatools.Failure(err))
			}
			return withApp(ctx, streams, &params.ConnectionParams, func(app *appcontext.App) taigatools.Result {
				return app.Tools.Delete(ctx, kind, id)
			})
		},
	}
}
