// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/cmd/taiga-mcp/cli"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/httppool"
)

func metricsCommand(streams Streams) *cli.Command {
	var params struct {
		ConnectionParams
		Format string `flag:"format" default:"json" desc:"summary encoding: json or cbor"`
		Probe  string `flag:"probe" default:"/projects" desc:"endpoint to request"`
		Count  int    `flag:"count,n" default:"5" desc:"number of probe requests"`
	}
	return &cli.Command{
		Name:    "metrics",
		Summary: "Probe an endpoint and print per-endpoint call metrics",
		Description: `Send --count GET requests to --probe through the full client stack
and print the connection pool's metrics summary: call count, errors,
latency percentiles, byte totals, and status codes per endpoint.

Failed probes are recorded, not fatal. With --format cbor the summary
is written as deterministic CBOR.`,
		Examples: []cli.Example{{
			Description: "Inspect CBOR output",
			Command:     "taiga-mcp metrics --format cbor | cbor2json",
		}},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("metrics", &params) },
		Run: func(ctx context.Context, args []string) error {
			format := httppool.Format(params.Format)
			if format != httppool.FormatJSON && format != httppool.FormatCBOR {
				return fmt.Errorf("--format must be json or cbor, got %q", params.Format)
			}
			if params.Count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			app, err := params.open(ctx, streams)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Authenticate(ctx); err != nil {
				app.Logger.Warn("authentication failed, probing anonymously", "error", err)
			}

			for range params.Count {
				if _, err := app.Client.GetRaw(ctx, params.Probe, nil); err != nil {
					app.Logger.Debug("probe failed", "endpoint", params.Probe, "error", err)
				}
			}
			return httppool.WriteSummary(streams.Stdout, app.Pool.Metrics().Summary(), format)
		},
	}
}
