// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/appcontext"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/config"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/logging"
)

// ConnectionParams selects the configuration source and overrides the
// log settings. Embedded in every command that talks to Taiga.
type ConnectionParams struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// AddFlags registers --config, --log-level, and --log-format.
func (p *ConnectionParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.ConfigPath, "config", "", "config file (.yaml, .yml, .json, .jsonc); defaults to $"+config.EnvConfigPath+", then TAIGA_* variables")
	flagSet.StringVar(&p.LogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	flagSet.StringVar(&p.LogFormat, "log-format", "", "override logging.format (auto, text, json)")
}

// load reads exactly one configuration source: --config, then
// $TAIGA_MCP_CONFIG, then the TAIGA_* environment variables.
func (p *ConnectionParams) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case p.ConfigPath != "":
		cfg, err = config.LoadFile(p.ConfigPath)
	case os.Getenv(config.EnvConfigPath) != "":
		cfg, err = config.Load()
	default:
		cfg, err = config.FromEnvironment()
	}
	if err != nil {
		return nil, err
	}
	if p.LogLevel != "" {
		cfg.Logging.Level = p.LogLevel
	}
	if p.LogFormat != "" {
		cfg.Logging.Format = p.LogFormat
	}
	return cfg, nil
}

func (p *ConnectionParams) open(ctx context.Context, streams Streams) (*appcontext.App, error) {
	cfg, err := p.load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(streams.Stderr, level, logging.Format(cfg.Logging.Format))
	if err != nil {
		return nil, err
	}
	return appcontext.Open(ctx, cfg, appcontext.Options{Logger: logger})
}
