// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taigatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Credentials accepted by the mock server's /auth endpoint.
const (
	Username     = "taiga-test"
	Password     = "taiga-test-password"
	AuthToken    = "mock-auth-token"
	RefreshToken = "mock-refresh-token"
)

// Item is a stored resource: decoded JSON with an "id".
type Item = map[string]any

// Server is a mock Taiga API on an httptest server. It serves /auth,
// /auth/refresh, the project endpoints (including stats, tags, and
// by_slug), the standard collections (userstories, issues, tasks,
// epics, milestones), and /exporter. Versioned collections enforce
// optimistic concurrency on PATCH.
//
// All endpoints except the auth ones require "Authorization: Bearer
// <token>" with a token the server issued.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextID      int64
	collections map[string]map[int64]Item
	tags        map[int64]map[string]*string
	tokens      map[string]bool
	requests    map[string]int
}

var versioned = map[string]bool{
	"userstories": true,
	"issues":      true,
	"tasks":       true,
	"epics":       true,
}

// NewServer starts a mock server, closed automatically when t ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	server := &Server{
		nextID:      100,
		collections: make(map[string]map[int64]Item),
		tags:        make(map[int64]map[string]*string),
		tokens:      map[string]bool{AuthToken: true},
		requests:    make(map[string]int),
	}
	for _, name := range []string{"projects", "userstories", "issues", "tasks", "epics", "milestones"} {
		server.collections[name] = make(map[int64]Item)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth", server.handleAuth)
	mux.HandleFunc("POST /api/v1/auth/refresh", server.handleRefresh)
	mux.HandleFunc("GET /api/v1/projects/by_slug", server.authorized(server.handleProjectBySlug))
	mux.HandleFunc("GET /api/v1/projects/{id}/stats", server.authorized(server.handleProjectStats))
	mux.HandleFunc("GET /api/v1/projects/{id}/tags_colors", server.authorized(server.handleTags))
	mux.HandleFunc("POST /api/v1/projects/{id}/create_tag", server.authorized(server.handleCreateTag))
	mux.HandleFunc("POST /api/v1/projects/{id}/edit_tag", server.authorized(server.handleEditTag))
	mux.HandleFunc("POST /api/v1/projects/{id}/delete_tag", server.authorized(server.handleDeleteTag))
	mux.HandleFunc("GET /api/v1/exporter/{id}", server.authorized(server.handleExport))
	mux.HandleFunc("GET /api/v1/{collection}", server.authorized(server.handleList))
	mux.HandleFunc("POST /api/v1/{collection}", server.authorized(server.handleCreate))
	mux.HandleFunc("GET /api/v1/{collection}/{id}", server.authorized(server.handleGet))
	mux.HandleFunc("PATCH /api/v1/{collection}/{id}", server.authorized(server.handleUpdate))
	mux.HandleFunc("DELETE /api/v1/{collection}/{id}", server.authorized(server.handleDelete))

	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.mu.Lock()
		server.requests[r.Method+" "+r.URL.Path]++
		server.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

// BaseURL returns the API root to configure clients with.
func (s *Server) BaseURL() string { return s.URL + "/api/v1" }

// Requests returns how many requests hit method and path (path
// including the /api/v1 prefix).
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// Seed stores item in collection, assigning an id when absent, and
// returns the id.
func (s *Server) Seed(collection string, item Item) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(collection, item)
}

// Item returns a copy of a stored item.
func (s *Server) Item(collection string, id int64) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.collections[collection][id]
	if !ok {
		return nil, false
	}
	return copyItem(item), true
}

// Edit changes a stored item the way another Taiga client would,
// bumping the version of versioned items. Reports whether the item
// exists.
func (s *Server) Edit(collection string, id int64, fields Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.collections[collection][id]
	if !ok {
		return false
	}
	for key, value := range fields {
		if key != "id" && key != "version" {
			item[key] = value
		}
	}
	if versioned[collection] {
		item["version"] = toInt64(item["version"]) + 1
	}
	return true
}

// RevokeTokens invalidates every issued access token, so the next
// request gets a 401 and must refresh.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.tokens)
}

func (s *Server) storeLocked(collection string, item Item) int64 {
	item = copyItem(item)
	id := toInt64(item["id"])
	if id == 0 {
		s.nextID++
		id = s.nextID
	}
	item["id"] = id
	if versioned[collection] {
		if _, ok := item["version"]; !ok {
			item["version"] = 1
		}
	}
	s.collections[collection][id] = item
	return id
}

func (s *Server) authorized(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		valid := ok && s.tokens[token]
		s.mu.Unlock()
		if !valid {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		handler(w, r)
	}
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type     string `json:"type"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if json.NewDecoder(r.Body).Decode(&body) != nil || body.Type != "normal" {
		writeError(w, http.StatusBadRequest, "Invalid login type")
		return
	}
	if body.Username != Username || body.Password != Password {
		writeError(w, http.StatusBadRequest, "Username or password does not matches user.")
		return
	}
	s.mu.Lock()
	s.tokens[AuthToken] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, Item{
		"id":         1,
		"username":   Username,
		"auth_token": AuthToken,
		"refresh":    RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if json.NewDecoder(r.Body).Decode(&body) != nil || body.Refresh != RefreshToken {
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	s.mu.Lock()
	s.tokens[AuthToken] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, Item{"auth_token": AuthToken, "refresh": RefreshToken})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.collection(w, r)
	if !ok {
		return
	}
	project := r.URL.Query().Get("project")

	s.mu.Lock()
	items := make([]Item, 0, len(s.collections[collection]))
	for _, item := range s.collections[collection] {
		if project != "" && fmt.Sprint(item["project"]) != project {
			continue
		}
		items = append(items, copyItem(item))
	}
	s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return toInt64(items[i]["id"]) < toInt64(items[j]["id"]) })
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection, ok := s.collection(w, r)
	if !ok {
		return
	}
	var item Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON")
		return
	}
	required := "subject"
	if collection == "projects" || collection == "milestones" {
		required = "name"
	}
	if value, _ := item[required].(string); value == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{required: {"This field is required."}})
		return
	}
	delete(item, "id")

	s.mu.Lock()
	id := s.storeLocked(collection, item)
	stored := copyItem(s.collections[collection][id])
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.itemRef(w, r)
	if !ok {
		return
	}
	item, found := s.Item(collection, id)
	if !found {
		writeError(w, http.StatusNotFound, "No "+collection+" matches the given query.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.itemRef(w, r)
	if !ok {
		return
	}
	var fields Item
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, found := s.collections[collection][id]
	if !found {
		writeError(w, http.StatusNotFound, "No "+collection+" matches the given query.")
		return
	}
	if versioned[collection] {
		version, present := fields["version"]
		if !present {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"version": {"This field is required."}})
			return
		}
		if toInt64(version) != toInt64(item["version"]) {
			writeError(w, http.StatusBadRequest, "The version doesn't match with the current one")
			return
		}
		fields["version"] = toInt64(item["version"]) + 1
	}
	for key, value := range fields {
		if key != "id" {
			item[key] = value
		}
	}
	writeJSON(w, http.StatusOK, copyItem(item))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := s.itemRef(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.collections[collection][id]
	delete(s.collections[collection], id)
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "No "+collection+" matches the given query.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, project := range s.collections["projects"] {
		if project["slug"] == slug {
			writeJSON(w, http.StatusOK, copyItem(project))
			return
		}
	}
	writeError(w, http.StatusNotFound, "No Project matches the given query.")
}

func (s *Server) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	id, ok := s.projectID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	project := s.collections["projects"][id]
	milestones := 0
	for _, milestone := range s.collections["milestones"] {
		if toInt64(milestone["project"]) == id {
			milestones++
		}
	}
	writeJSON(w, http.StatusOK, Item{
		"name":             project["name"],
		"total_milestones": milestones,
		"total_points":     0,
		"closed_points":    0,
	})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	id, ok := s.projectID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make(map[string]*string, len(s.tags[id]))
	for name, color := range s.tags[id] {
		tags[name] = color
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		Tag   string  `json:"tag"`
		Color *string `json:"color"`
	}
	if json.NewDecoder(r.Body).Decode(&body) != nil || body.Tag == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"tag": {"This field is required."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tags[id][body.Tag]; exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"tag": {"This tag already exists."}})
		return
	}
	if s.tags[id] == nil {
		s.tags[id] = make(map[string]*string)
	}
	s.tags[id][body.Tag] = body.Color
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleEditTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		From  string  `json:"from_tag"`
		To    string  `json:"to_tag"`
		Color *string `json:"color"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	defer s.mu.Unlock()
	color, exists := s.tags[id][body.From]
	if !exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"from_tag": {"The tag doesn't exist."}})
		return
	}
	if body.Color != nil {
		color = body.Color
	}
	delete(s.tags[id], body.From)
	s.tags[id][body.To] = color
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		Tag string `json:"tag"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tags[id][body.Tag]; !exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"tag": {"The tag doesn't exist."}})
		return
	}
	delete(s.tags[id], body.Tag)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.projectID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dump := Item{"project": copyItem(s.collections["projects"][id])}
	for _, name := range []string{"userstories", "issues", "tasks", "epics", "milestones"} {
		var items []Item
		for _, item := range s.collections[name] {
			if toInt64(item["project"]) == id {
				items = append(items, copyItem(item))
			}
		}
		dump[name] = items
	}
	writeJSON(w, http.StatusOK, dump)
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("collection")
	if _, ok := s.collections[name]; !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return "", false
	}
	return name, true
}

func (s *Server) itemRef(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	collection, ok := s.collection(w, r)
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return "", 0, false
	}
	return collection, id, true
}

func (s *Server) projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err == nil {
		s.mu.Lock()
		_, found := s.collections["projects"][id]
		s.mu.Unlock()
		if found {
			return id, true
		}
	}
	writeError(w, http.StatusNotFound, "No Project matches the given query.")
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Item{"_error_message": message, "_error_type": "taiga.base.exceptions"})
}

func copyItem(item Item) Item {
	duplicate := make(Item, len(item))
	for key, value := range item {
		duplicate[key] = value
	}
	return duplicate
}

func toInt64(value any) int64 {
	switch number := value.(type) {
	case int:
		return int64(number)
	case int64:
		return number
	case float64:
		return int64(number)
	case json.Number:
		parsed, _ := number.Int64()
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(number, 10, 64)
		return parsed
	}
	return 0
}
