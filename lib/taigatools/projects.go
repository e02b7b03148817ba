// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taigatools

import (
	"context"
	"encoding/json"
	"strings"
)

// ProjectBySlug returns the project with slug.
func (tools *Tools) ProjectBySlug(ctx context.Context, slug string) Result {
	if strings.TrimSpace(slug) == "" {
		return Failure(missing("slug"))
	}
	return From(tools.resources.Projects.GetBySlug(ctx, slug))
}

// ProjectStats returns point and milestone statistics.
func (tools *Tools) ProjectStats(ctx context.Context, projectID int64) Result {
	if projectID <= 0 {
		return Failure(missing("project_id"))
	}
	return From(tools.resources.Projects.Stats(ctx, projectID))
}

// ListTags returns a project's tags.
func (tools *Tools) ListTags(ctx context.Context, projectID int64) Result {
	if projectID <= 0 {
		return Failure(missing("project_id"))
	}
	return From(tools.resources.Projects.Tags(ctx, projectID))
}

// CreateTag adds a tag to a project.
func (tools *Tools) CreateTag(ctx context.Context, projectID int64, name, color string) Result {
	if projectID <= 0 {
		return Failure(missing("project_id"))
	}
	if name == "" {
		return Failure(missing("tag"))
	}
	err := tools.resources.Projects.CreateTag(ctx, projectID, name, color)
	return From(map[string]any{"tag": name, "created": true}, err)
}

// EditTag renames or recolors a tag.
func (tools *Tools) EditTag(ctx context.Context, projectID int64, from, to, color string) Result {
	if projectID <= 0 {
		return Failure(missing("project_id"))
	}
	if from == "" {
		return Failure(missing("from_tag"))
	}
	if to == "" {
		to = from
	}
	err := tools.resources.Projects.EditTag(ctx, projectID, from, to, color)
	return From(map[string]any{"tag": to, "updated": true}, err)
}

// DeleteTag removes a tag from a project.
func (tools *Tools) DeleteTag(ctx context.Context, projectID int64, name string) Result {
	if projectID <= 0 {
		return Failure(missing("project_id"))
	}
	if name == "" {
		return Failure(missing("tag"))
	}
	err := tools.resources.Projects.DeleteTag(ctx, projectID, name)
	return From(map[string]any{"tag": name, "deleted": true}, err)
}

// ExportProject returns the project dump. The dump is embedded as JSON
// when it parses, and as a string otherwise.
func (tools *Tools) ExportProject(ctx context.Context, projectID int64) Result {
	if projectID <= 0 {
		return Failure(missing("project_id"))
	}
	dump, err := tools.resources.Projects.Export(ctx, projectID)
	if err != nil {
		return Failure(err)
	}
	if json.Valid(dump) {
		return Success(json.RawMessage(dump))
	}
	return Success(string(dump))
}
