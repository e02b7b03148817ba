// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taigatools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/failure"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taiga"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/taiga/taigatest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  Category
		retryable bool
	}{
		{"input", &InputError{Field: "id", Message: "is required"}, CategoryValidation, false},
		{"not found", &taiga.APIError{StatusCode: 404}, CategoryNotFound, false},
		{"forbidden", &taiga.APIError{StatusCode: 403}, CategoryForbidden, false},
		{"authentication", &taiga.AuthenticationError{StatusCode: 401}, CategoryAuthentication, false},
		{"rate limited", &taiga.APIError{StatusCode: 429}, CategoryRateLimited, true},
		{"timeout", &taiga.TimeoutError{Retries: 3}, CategoryTransient, true},
		{"transport", &taiga.APIError{Err: failure.New(failure.KindConnection, "GET /projects", errors.New("refused"))}, CategoryTransient, true},
		{"bad request", &taiga.APIError{StatusCode: 400}, CategoryValidation, false},
		{"server error", &taiga.APIError{StatusCode: 502}, CategoryTransient, true},
		{"conflict", &taiga.APIError{StatusCode: 409}, CategoryInternal, false},
		{"wrapped", fmt.Errorf("loading: %w", &taiga.APIError{StatusCode: 404}), CategoryNotFound, false},
		{"config", &taiga.ConfigError{Field: "base_url", Err: errors.New("is required")}, CategoryInternal, false},
		{"other", errors.New("boom"), CategoryInternal, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			category, retryable := Classify(test.err)
			if category != test.category || retryable != test.retryable {
				t.Errorf("Classify = %s/%v, want %s/%v", category, retryable, test.category, test.retryable)
			}
		})
	}
}

func TestFailureResultIsFlat(t *testing.T) {
	result := Failure(&taiga.APIError{Method: "GET", Endpoint: "/projects/9", StatusCode: 404, Message: "No Project matches the given query."})
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(data, &decoded)
	if decoded["ok"] != false || decoded["category"] != "not_found" {
		t.Errorf("result = %s", data)
	}
	message, _ := decoded["error"].(string)
	if !strings.Contains(message, "No Project matches") || strings.Contains(message, "*taiga") {
		t.Errorf("error message = %q", message)
	}
	if _, present := decoded["retryable"]; present {
		t.Errorf("retryable should be omitted when false: %s", data)
	}
}

func TestListRequiresProject(t *testing.T) {
	requester := taigatest.NewRequester()
	tools := New(requester, nil)

	result := tools.List(context.Background(), KindIssue, ListParams{})
	if result.OK || result.Category != CategoryValidation {
		t.Errorf("result = %+v, want validation failure", result)
	}
	if len(requester.Calls()) != 0 {
		t.Errorf("calls made despite invalid input: %+v", requester.Calls())
	}
}

func TestListPassesFilters(t *testing.T) {
	requester := taigatest.NewRequester()
	requester.Respond(http.MethodGet, "/userstories", []map[string]any{{"id": 1, "subject": "Login"}})
	tools := New(requester, nil)

	result := tools.List(context.Background(), KindUserStory, ListParams{ProjectID: 3, Filters: map[string]string{"status": "2"}})
	if !result.OK {
		t.Fatalf("List failed: %+v", result)
	}
	stories, ok := result.Data.([]taiga.UserStory)
	if !ok || len(stories) != 1 || stories[0].Subject != "Login" {
		t.Errorf("data = %#v", result.Data)
	}
	query := requester.Calls()[0].Query
	if query.Get("project") != "3" || query.Get("status") != "2" {
		t.Errorf("query = %v", query)
	}
}

func TestCRUDAgainstMockServer(t *testing.T) {
	server := taigatest.NewServer(t)
	client, err := taiga.NewClient(taiga.Config{
		BaseURL:  server.BaseURL(),
		Username: taigatest.Username,
		Password: taigatest.Password,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()
	tools := New(client, client)
	ctx := context.Background()

	if result := tools.Login(ctx); !result.OK {
		t.Fatalf("Login: %+v", result)
	}

	created := tools.Create(ctx, KindProject, taiga.Fields{"name": "Backend", "slug": "backend"})
	if !created.OK {
		t.Fatalf("Create project: %+v", created)
	}
	projectID := created.Data.(*taiga.Project).ID

	story := tools.Create(ctx, KindUserStory, taiga.Fields{"project": projectID, "subject": "Login"})
	if !story.OK {
		t.Fatalf("Create story: %+v", story)
	}
	storyID := story.Data.(*taiga.UserStory).ID

	updated := tools.Update(ctx, KindUserStory, storyID, taiga.Fields{"subject": "Login via SSO"})
	if !updated.OK || updated.Data.(*taiga.UserStory).Version != 2 {
		t.Fatalf("Update story: %+v", updated)
	}

	invalid := tools.Create(ctx, KindIssue, taiga.Fields{"project": projectID})
	if invalid.OK || invalid.Category != CategoryValidation || !strings.Contains(invalid.Error, "subject") {
		t.Errorf("invalid create = %+v", invalid)
	}

	if result := tools.CreateTag(ctx, projectID, "bug", "#ff0000"); !result.OK {
		t.Fatalf("CreateTag: %+v", result)
	}
	tags := tools.ListTags(ctx, projectID)
	if !tags.OK || len(tags.Data.([]taiga.Tag)) != 1 {
		t.Errorf("ListTags = %+v", tags)
	}
	if result := tools.EditTag(ctx, projectID, "bug", "defect", ""); !result.OK {
		t.Errorf("EditTag = %+v", result)
	}
	if result := tools.DeleteTag(ctx, projectID, "defect"); !result.OK {
		t.Errorf("DeleteTag = %+v", result)
	}

	if result := tools.ProjectBySlug(ctx, "backend"); !result.OK {
		t.Errorf("ProjectBySlug = %+v", result)
	}
	if result := tools.ProjectStats(ctx, projectID); !result.OK {
		t.Errorf("ProjectStats = %+v", result)
	}
	export := tools.ExportProject(ctx, projectID)
	if _, isJSON := export.Data.(json.RawMessage); !export.OK || !isJSON {
		t.Errorf("ExportProject = %+v", export)
	}

	if result := tools.Delete(ctx, KindUserStory, storyID); !result.OK {
		t.Errorf("Delete = %+v", result)
	}
	missingStory := tools.Get(ctx, KindUserStory, storyID)
	if missingStory.OK || missingStory.Category != CategoryNotFound || missingStory.Retryable {
		t.Errorf("Get deleted = %+v", missingStory)
	}
}

func TestLoginFailure(t *testing.T) {
	server := taigatest.NewServer(t)
	client, err := taiga.NewClient(taiga.Config{BaseURL: server.BaseURL(), Username: "someone", Password: "wrong"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	result := New(client, client).Login(context.Background())
	if result.OK || result.Category != CategoryAuthentication {
		t.Errorf("Login = %+v, want authentication failure", result)
	}
	if strings.Contains(result.Error, "wrong") {
		t.Errorf("password leaked into error: %q", result.Error)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"project":  KindProject,
		"Projects": KindProject,
		"story":    KindUserStory,
		"stories":  KindUserStory,
		"issues":   KindIssue,
		"task":     KindTask,
		"epics":    KindEpic,
		"sprint":   KindMilestone,
	}
	for input, want := range tests {
		got, err := ParseKind(input)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseKind("wiki"); err == nil {
		t.Error("ParseKind(wiki) should fail")
	}
	if result := New(taigatest.NewRequester(), nil).Get(context.Background(), Kind("wiki"), 1); result.Category != CategoryValidation {
		t.Errorf("unknown kind result = %+v", result)
	}
}
