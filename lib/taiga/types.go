// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import "time"

// Project is a Taiga project. Only the fields the tools surface are
// decoded; the API returns many more.
type Project struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	IsPrivate     bool       `json:"is_private"`
	Owner         *UserBrief `json:"owner,omitempty"`
	Members       []int64    `json:"members,omitempty"`
	TotalStoryPts float64    `json:"total_story_points,omitempty"`
	CreatedDate   time.Time  `json:"created_date"`
	ModifiedDate  time.Time  `json:"modified_date"`
}

// UserBrief is the nested owner/assignee representation.
type UserBrief struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name_display"`
}

// ProjectStats is the /projects/{id}/stats payload.
type ProjectStats struct {
	Name              string  `json:"name"`
	TotalMilestones   int     `json:"total_milestones"`
	TotalPoints       float64 `json:"total_points"`
	ClosedPoints      float64 `json:"closed_points"`
	DefinedPoints     float64 `json:"defined_points"`
	AssignedPoints    float64 `json:"assigned_points"`
	SpeedPerMilestone float64 `json:"speed"`
}

// Tag is a project tag and its color. Taiga reports tags as a
// name → color map; Tags converts it.
type Tag struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// UserStory is a Taiga user story.
type UserStory struct {
	ID          int64    `json:"id"`
	Ref         int64    `json:"ref"`
	Version     int      `json:"version"`
	Project     int64    `json:"project"`
	Subject     string   `json:"subject"`
	Description string   `json:"description,omitempty"`
	Status      int64    `json:"status"`
	AssignedTo  *int64   `json:"assigned_to"`
	Milestone   *int64   `json:"milestone"`
	Tags        [][2]any `json:"tags,omitempty"`
	IsClosed    bool     `json:"is_closed"`
}

// Issue is a Taiga issue.
type Issue struct {
	ID          int64  `json:"id"`
	Ref         int64  `json:"ref"`
	Version     int    `json:"version"`
	Project     int64  `json:"project"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      int64  `json:"status"`
	Priority    int64  `json:"priority"`
	Severity    int64  `json:"severity"`
	Type        int64  `json:"type"`
	AssignedTo  *int64 `json:"assigned_to"`
	IsClosed    bool   `json:"is_closed"`
}

// Task is a Taiga task, optionally attached to a user story.
type Task struct {
	ID          int64  `json:"id"`
	Ref         int64  `json:"ref"`
	Version     int    `json:"version"`
	Project     int64  `json:"project"`
	UserStory   *int64 `json:"user_story"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      int64  `json:"status"`
	AssignedTo  *int64 `json:"assigned_to"`
	IsClosed    bool   `json:"is_closed"`
}

// Epic is a Taiga epic.
type Epic struct {
	ID          int64  `json:"id"`
	Ref         int64  `json:"ref"`
	Version     int    `json:"version"`
	Project     int64  `json:"project"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Status      int64  `json:"status"`
	IsClosed    bool   `json:"is_closed"`
}

// Milestone is a Taiga sprint.
type Milestone struct {
	ID               int64   `json:"id"`
	Project          int64   `json:"project"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	EstimatedStart   string  `json:"estimated_start"`
	EstimatedFinish  string  `json:"estimated_finish"`
	Closed           bool    `json:"closed"`
	TotalPoints      float64 `json:"total_points,omitempty"`
	ClosedPoints     float64 `json:"closed_points,omitempty"`
	UserStoriesCount int     `json:"user_stories_count,omitempty"`
}
