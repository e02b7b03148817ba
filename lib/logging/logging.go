// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the process-wide structured logger.
//
// With format "auto" the handler follows the destination: a terminal
// gets slog.TextHandler for people, anything else (a pipe to an MCP
// host, a file, CI) gets slog.JSONHandler for machines. Loggers are
// passed down explicitly; nothing here touches slog.SetDefault.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects the handler.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseLevel maps debug, info, warn, and error onto slog levels.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", name)
	}
	return level, nil
}

// New returns a logger writing to writer at level. With FormatAuto
// the handler is text when writer is a terminal and JSON otherwise.
func New(writer io.Writer, level slog.Level, format Format) (*slog.Logger, error) {
	options := &slog.HandlerOptions{Level: level}
	switch format {
	case FormatText:
		return slog.New(slog.NewTextHandler(writer, options)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(writer, options)), nil
	case FormatAuto, "":
		if isTerminal(writer) {
			return slog.New(slog.NewTextHandler(writer, options)), nil
		}
		return slog.New(slog.NewJSONHandler(writer, options)), nil
	}
	return nil, fmt.Errorf("logging: unknown format %q", format)
}

// FromConfig parses level and format names and builds a logger on
// stderr.
func FromConfig(levelName, formatName string) (*slog.Logger, error) {
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	return New(os.Stderr, level, Format(formatName))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(file.Fd()))
}
