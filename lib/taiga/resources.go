// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"context"
	"fmt"
	"net/url"
)

// Fields is a create or update payload. Taiga accepts partial objects
// on PATCH, so updates send only the keys present.
type Fields map[string]any

// Collection is a Taiga resource endpoint supporting the standard
// list/get/create/update/delete verbs.
type Collection[T any] struct {
	requester Requester
	path      string

	// versioned resources reject PATCH without the current "version"
	// (optimistic concurrency); Update fetches it when absent.
	versioned bool
}

// Path returns the collection endpoint, e.g. "/userstories".
func (c Collection[T]) Path() string { return c.path }

func (c Collection[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", c.path, id)
}

// List returns every item matching query (for example project=3).
func (c Collection[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var items []T
	if err := c.requester.ListJSON(ctx, c.path, query, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Get returns one item by ID.
func (c Collection[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := c.requester.GetJSON(ctx, c.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create posts fields and returns the created item.
func (c Collection[T]) Create(ctx context.Context, fields Fields) (*T, error) {
	var item T
	if err := c.requester.PostJSON(ctx, c.path, fields, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update patches the given fields. For versioned resources a missing
// "version" is read from the server first, bypassing any cache.
func (c Collection[T]) Update(ctx context.Context, id int64, fields Fields) (*T, error) {
	payload := make(Fields, len(fields)+1)
	for key, value := range fields {
		payload[key] = value
	}
	if _, ok := payload["version"]; c.versioned && !ok {
		var current struct {
			Version int `json:"version"`
		}
		if err := c.requester.FetchJSON(ctx, c.itemPath(id), nil, &current); err != nil {
			return nil, err
		}
		payload["version"] = current.Version
	}

	var item T
	if err := c.requester.PatchJSON(ctx, c.itemPath(id), payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes one item.
func (c Collection[T]) Delete(ctx context.Context, id int64) error {
	return c.requester.Delete(ctx, c.itemPath(id))
}

// Resources groups the typed services over one Requester.
type Resources struct {
	Projects    *Projects
	UserStories Collection[UserStory]
	Issues      Collection[Issue]
	Tasks       Collection[Task]
	Epics       Collection[Epic]
	Milestones  Collection[Milestone]
}

// NewResources binds every service to requester.
func NewResources(requester Requester) *Resources {
	return &Resources{
		Projects:    &Projects{Collection: Collection[Project]{requester: requester, path: "/projects"}},
		UserStories: Collection[UserStory]{requester: requester, path: "/userstories", versioned: true},
		Issues:      Collection[Issue]{requester: requester, path: "/issues", versioned: true},
		Tasks:       Collection[Task]{requester: requester, path: "/tasks", versioned: true},
		Epics:       Collection[Epic]{requester: requester, path: "/epics", versioned: true},
		Milestones:  Collection[Milestone]{requester: requester, path: "/milestones"},
	}
}

// ProjectQuery returns the query selecting items of one project.
func ProjectQuery(projectID int64) url.Values {
	return url.Values{"project": {fmt.Sprint(projectID)}}
}
