// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taigatools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taiga"
)

// Kind names a Taiga collection a generic tool operates on.
type Kind string

const (
	KindProject   Kind = "project"
	KindUserStory Kind = "userstory"
	KindIssue     Kind = "issue"
	KindTask      Kind = "task"
	KindEpic      Kind = "epic"
	KindMilestone Kind = "milestone"
)

// Kinds returns every supported kind, sorted.
func Kinds() []Kind {
	kinds := []Kind{KindProject, KindUserStory, KindIssue, KindTask, KindEpic, KindMilestone}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind accepts a kind name, its plural, and "story"/"stories".
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "story", "stories", "userstories", "user_story", "user_stories":
		return KindUserStory, nil
	case "sprint", "sprints":
		return KindMilestone, nil
	}
	name = strings.TrimSuffix(name, "s")
	for _, kind := range Kinds() {
		if string(kind) == name {
			return kind, nil
		}
	}
	return "", &InputError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", name)}
}

// Authenticator is the part of *taiga.Client the auth tool needs.
type Authenticator interface {
	Authenticate(ctx context.Context) error
	Tokens() (access, refresh string)
}

// Tools exposes Taiga operations as Result-returning calls.
type Tools struct {
	resources *taiga.Resources
	auth      Authenticator
}

// New builds the tools over requester. auth may be nil, in which case
// Login reports an internal error.
func New(requester taiga.Requester, auth Authenticator) *Tools {
	return &Tools{resources: taiga.NewResources(requester), auth: auth}
}

// ListParams selects items for List. ProjectID is required for every
// kind except projects.
type ListParams struct {
	ProjectID int64             `json:"project_id,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// Login authenticates and reports whether a refresh token was issued.
// Tokens are never included in the result.
func (tools *Tools) Login(ctx context.Context) Result {
	if tools.auth == nil {
		return Failure(fmt.Errorf("authentication is not configured"))
	}
	if err := tools.auth.Authenticate(ctx); err != nil {
		return Failure(err)
	}
	_, refresh := tools.auth.Tokens()
	return Success(map[string]any{"authenticated": true, "refreshable": refresh != ""})
}

// List returns the items of kind matching params.
func (tools *Tools) List(ctx context.Context, kind Kind, params ListParams) Result {
	query := make(map[string][]string, len(params.Filters)+1)
	for key, value := range params.Filters {
		query[key] = []string{value}
	}
	if kind != KindProject {
		if params.ProjectID == 0 {
			return Failure(missing("project_id"))
		}
		query["project"] = []string{fmt.Sprint(params.ProjectID)}
	}

	switch kind {
	case KindProject:
		return From(tools.resources.Projects.List(ctx, query))
	case KindUserStory:
		return From(tools.resources.UserStories.List(ctx, query))
	case KindIssue:
		return From(tools.resources.Issues.List(ctx, query))
	case KindTask:
		return From(tools.resources.Tasks.List(ctx, query))
	case KindEpic:
		return From(tools.resources.Epics.List(ctx, query))
	case KindMilestone:
		return From(tools.resources.Milestones.List(ctx, query))
	}
	return unknownKind(kind)
}

// Get returns one item of kind.
func (tools *Tools) Get(ctx context.Context, kind Kind, id int64) Result {
	if id <= 0 {
		return Failure(missing("id"))
	}
	switch kind {
	case KindProject:
		return From(tools.resources.Projects.Get(ctx, id))
	case KindUserStory:
		return From(tools.resources.UserStories.Get(ctx, id))
	case KindIssue:
		return From(tools.resources.Issues.Get(ctx, id))
	case KindTask:
		return From(tools.resources.Tasks.Get(ctx, id))
	case KindEpic:
		return From(tools.resources.Epics.Get(ctx, id))
	case KindMilestone:
		return From(tools.resources.Milestones.Get(ctx, id))
	}
	return unknownKind(kind)
}

// Create creates an item of kind from fields. Field validation is left
// to Taiga; a rejected payload comes back as a validation failure.
func (tools *Tools) Create(ctx context.Context, kind Kind, fields taiga.Fields) Result {
	if len(fields) == 0 {
		return Failure(missing("fields"))
	}
	switch kind {
	case KindProject:
		return From(tools.resources.Projects.Create(ctx, fields))
	case KindUserStory:
		return From(tools.resources.UserStories.Create(ctx, fields))
	case KindIssue:
		return From(tools.resources.Issues.Create(ctx, fields))
	case KindTask:
		return From(tools.resources.Tasks.Create(ctx, fields))
	case KindEpic:
		return From(tools.resources.Epics.Create(ctx, fields))
	case KindMilestone:
		return From(tools.resources.Milestones.Create(ctx, fields))
	}
	return unknownKind(kind)
}

// Update patches an item of kind.
func (tools *Tools) Update(ctx context.Context, kind Kind, id int64, fields taiga.Fields) Result {
	if id <= 0 {
		return Failure(missing("id"))
	}
	if len(fields) == 0 {
		return Failure(missing("fields"))
	}
	switch kind {
	case KindProject:
		return From(tools.resources.Projects.Update(ctx, id, fields))
	case KindUserStory:
		return From(tools.resources.UserStories.Update(ctx, id, fields))
	case KindIssue:
		return From(tools.resources.Issues.Update(ctx, id, fields))
	case KindTask:
		return From(tools.resources.Tasks.Update(ctx, id, fields))
	case KindEpic:
		return From(tools.resources.Epics.Update(ctx, id, fields))
	case KindMilestone:
		return From(tools.resources.Milestones.Update(ctx, id, fields))
	}
	return unknownKind(kind)
}

// Delete removes an item of kind.
func (tools *Tools) Delete(ctx context.Context, kind Kind, id int64) Result {
	if id <= 0 {
		return Failure(missing("id"))
	}
	var err error
	switch kind {
	case KindProject:
		err = tools.resources.Projects.Delete(ctx, id)
	case KindUserStory:
		err = tools.resources.UserStories.Delete(ctx, id)
	case KindIssue:
		err = tools.resources.Issues.Delete(ctx, id)
	case KindTask:
		err = tools.resources.Tasks.Delete(ctx, id)
	case KindEpic:
		err = tools.resources.Epics.Delete(ctx, id)
	case KindMilestone:
		err = tools.resources.Milestones.Delete(ctx, id)
	default:
		return unknownKind(kind)
	}
	return From(map[string]any{"deleted": true, "id": id}, err)
}

func unknownKind(kind Kind) Result {
	return Failure(&InputError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)})
}
