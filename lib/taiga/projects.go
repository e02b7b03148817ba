// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// Projects adds the project-only endpoints to the standard verbs.
type Projects struct {
	Collection[Project]
}

// GetBySlug returns the project with the given slug.
func (p *Projects) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	var project Project
	if err := p.requester.GetJSON(ctx, "/projects/by_slug", url.Values{"slug": {slug}}, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Stats returns the project's point and milestone statistics.
func (p *Projects) Stats(ctx context.Context, id int64) (*ProjectStats, error) {
	var stats ProjectStats
	if err := p.requester.GetJSON(ctx, fmt.Sprintf("/projects/%d/stats", id), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Tags returns the project's tags sorted by name.
func (p *Projects) Tags(ctx context.Context, id int64) ([]Tag, error) {
	var colors map[string]*string
	if err := p.requester.GetJSON(ctx, fmt.Sprintf("/projects/%d/tags_colors", id), nil, &colors); err != nil {
		return nil, err
	}
	tags := make([]Tag, 0, len(colors))
	for name, color := range colors {
		tags = append(tags, Tag{Name: name, Color: color})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// CreateTag adds a tag. An empty color lets Taiga pick one.
func (p *Projects) CreateTag(ctx context.Context, id int64, name, color string) error {
	body := Fields{"tag": name}
	if color != "" {
		body["color"] = color
	}
	return p.requester.PostJSON(ctx, fmt.Sprintf("/projects/%d/create_tag", id), body, nil)
}

// EditTag renames a tag and optionally recolors it.
func (p *Projects) EditTag(ctx context.Context, id int64, from, to, color string) error {
	body := Fields{"from_tag": from, "to_tag": to}
	if color != "" {
		body["color"] = color
	}
	return p.requester.PostJSON(ctx, fmt.Sprintf("/projects/%d/edit_tag", id), body, nil)
}

// DeleteTag removes a tag from the project and every item using it.
func (p *Projects) DeleteTag(ctx context.Context, id int64, name string) error {
	return p.requester.PostJSON(ctx, fmt.Sprintf("/projects/%d/delete_tag", id), Fields{"tag": name}, nil)
}

// Export returns the project's export dump as raw JSON bytes.
func (p *Projects) Export(ctx context.Context, id int64) ([]byte, error) {
	return p.requester.GetRaw(ctx, fmt.Sprintf("/exporter/%d", id), nil)
}
