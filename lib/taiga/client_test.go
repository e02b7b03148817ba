// Copyright 2026 The Taiga MCP Authors
// SPDX-License-Identifier: Apache-2.0

package taiga

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/backoff"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/cache"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/clock"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/httppool"
	"github.com/leonvillamayor/taiga-fastmcp-sub003/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// testPolicy retries three times with deterministic 1s, 2s, 4s delays.
var testPolicy = backoff.Policy{
	MaxRetries:      3,
	BaseDelay:       time.Second,
	MaxDelay:        30 * time.Second,
	ExponentialBase: 2,
}

type testClient struct {
	*Client
	clock *clock.FakeClock
	logs  *bytes.Buffer
}

// newTestClient starts an httptest server for handler and returns a
// client rooted at its /api/v1. Backoff sleeps advance a fake clock
// instantly; logs at INFO and above are captured.
func newTestClient(t *testing.T, handler http.HandlerFunc, configure ...func(*Config)) *testClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fakeClock := clock.Fake(epoch)
	fakeClock.AutoAdvance()
	logs := &bytes.Buffer{}

	config := Config{
		BaseURL: server.URL + "/api/v1",
		Timeout: 5 * time.Second,
		Retry:   testPolicy,
		Clock:   fakeClock,
		Logger:  slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
	for _, apply := range configure {
		apply(&config)
	}
	client, err := NewClient(config)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return &testClient{Client: client, clock: fakeClock, logs: logs}
}

func (tc *testClient) logLines() []string {
	text := strings.TrimSpace(tc.logs.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
		apply func(*Config)
	}{
		{"missing URL", "base_url", func(c *Config) { c.BaseURL = "" }},
		{"bad scheme", "base_url", func(c *Config) { c.BaseURL = "ftp://taiga.example/api" }},
		{"short URL", "base_url", func(c *Config) { c.BaseURL = "http://a.b" }},
		{"timeout too long", "timeout", func(c *Config) { c.Timeout = 301 * time.Second }},
		{"negative timeout", "timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"too many retries", "max_retries", func(c *Config) { c.Retry = backoff.Policy{MaxRetries: 11, ExponentialBase: 2} }},
		{"negative rate", "requests_per_second", func(c *Config) { c.RequestsPerSecond = -1 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := Config{BaseURL: "https://taiga.example/api/v1"}
			test.apply(&config)
			_, err := NewClient(config)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("NewClient error = %v, want ErrConfiguration", err)
			}
			var configError *ConfigError
			if !errors.As(err, &configError) || configError.Field != test.field {
				t.Errorf("ConfigError field = %v, want %q", configError, test.field)
			}
		})
	}

	if _, err := NewClient(Config{BaseURL: "http://localhost:8000/api/v1"}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestNewClientDefaultPolicy(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://taiga.example/api/v1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Policy().MaxRetries != backoff.DefaultPolicy().MaxRetries {
		t.Errorf("MaxRetries = %d, want default", client.Policy().MaxRetries)
	}
	if !client.OwnsPool() {
		t.Error("client without Pool should own one")
	}
}

func TestNewClientPartialPolicy(t *testing.T) {
	client, err := NewClient(Config{
		BaseURL: "https://taiga.example/api/v1",
		Retry:   backoff.Policy{MaxRetries: 2},
	})
	if err != nil {
		t.Fatalf("NewClient with only MaxRetries: %v", err)
	}
	defer client.Close()
	if policy := client.Policy(); policy.MaxRetries != 2 || policy.ExponentialBase != 2 {
		t.Errorf("policy = %+v", policy)
	}
}

func TestNoRetryPolicyMakesOneAttempt(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-r.Context().Done()
	}, func(c *Config) {
		c.Timeout = 50 * time.Millisecond
		c.Retry = backoff.NoRetry()
	})

	err := tc.GetJSON(context.Background(), "/projects", nil, nil)
	if !IsTimeout(err) {
		t.Fatalf("error = %v, want timeout", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

// Two timeouts followed by a success: the call succeeds on the third
// attempt and logs exactly two retry warnings.
func TestTimeoutsRetriedThenSuccess(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			<-r.Context().Done()
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Backend"}})
	}, func(c *Config) { c.Timeout = 100 * time.Millisecond })

	var projects []Project
	if err := tc.GetJSON(context.Background(), "/projects", nil, &projects); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "Backend" {
		t.Errorf("projects = %+v", projects)
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}

	lines := tc.logLines()
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2:\n%s", len(lines), tc.logs.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, "level=WARN") || !strings.Contains(line, "outcome=timeout") {
			t.Errorf("unexpected log line: %s", line)
		}
	}

	slept := tc.clock.Slept()
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Errorf("backoff sleeps = %v, want [1s 2s]", slept)
	}
}

func TestTimeoutExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-r.Context().Done()
	}, func(c *Config) {
		c.Timeout = 50 * time.Millisecond
		c.Retry = backoff.Policy{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: time.Minute, ExponentialBase: 2}
	})

	_, err := tc.Do(context.Background(), http.MethodGet, "/issues")
	var timeoutError *TimeoutError
	if !errors.As(err, &timeoutError) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if timeoutError.Retries != 2 || !IsTimeout(err) {
		t.Errorf("Retries = %d, want 2", timeoutError.Retries)
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}
}

// A 404 is returned immediately with a single log entry.
func TestNotFoundNotRetried(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"_error_message": "No Project matches the given query."})
	})

	_, err := tc.Do(context.Background(), http.MethodGet, "/projects/999")
	if !IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
	var apiError *APIError
	if !errors.As(err, &apiError) || apiError.Message != "No Project matches the given query." {
		t.Errorf("APIError = %+v", apiError)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
	if lines := tc.logLines(); len(lines) != 1 {
		t.Errorf("log lines = %d, want 1:\n%s", len(lines), tc.logs.String())
	}
	if len(tc.clock.Slept()) != 0 {
		t.Errorf("slept %v on a 404", tc.clock.Slept())
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		check  func(error) bool
		want   string
	}{
		{"forbidden", 403, map[string]string{"_error_message": "You do not have permission to perform this action."}, IsPermissionDenied, "You do not have permission to perform this action."},
		{"server error", 500, map[string]string{"_error_message": "Internal server error"}, func(err error) bool { return StatusCode(err) == 500 }, "Internal server error"},
		{"validation", 400, map[string][]string{"subject": {"This field is required."}}, func(err error) bool { return StatusCode(err) == 400 }, "subject: This field is required."},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, test.status, test.body)
			})
			_, err := tc.Do(context.Background(), http.MethodPost, "/userstories")
			if !test.check(err) {
				t.Fatalf("error = %v did not classify as %s", err, test.name)
			}
			var apiError *APIError
			if !errors.As(err, &apiError) || apiError.Message != test.want {
				t.Errorf("message = %q, want %q", apiError.Message, test.want)
			}
			if IsNotFound(err) || IsRateLimited(err) {
				t.Errorf("error %v matched an unrelated sentinel", err)
			}
		})
	}
}

func TestUnauthorizedRefreshesOnce(t *testing.T) {
	var refreshes, hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			refreshes.Add(1)
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["refresh"] != "refresh-1" {
				t.Errorf("refresh body = %v", body)
			}
			writeJSON(w, http.StatusOK, map[string]string{"auth_token": "access-2", "refresh": "refresh-2"})
		case "/api/v1/projects":
			hits.Add(1)
			if r.Header.Get("Authorization") != "Bearer access-2" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"_error_message": "Invalid token"})
				return
			}
			writeJSON(w, http.StatusOK, []any{})
		}
	}, func(c *Config) {
		c.AuthToken = "access-1"
		c.RefreshToken = "refresh-1"
	})

	if _, err := tc.Do(context.Background(), http.MethodGet, "/projects"); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if refreshes.Load() != 1 || hits.Load() != 2 {
		t.Errorf("refreshes = %d, hits = %d; want 1, 2", refreshes.Load(), hits.Load())
	}
	access, refresh := tc.Tokens()
	if access != "access-2" || refresh != "refresh-2" {
		t.Errorf("tokens = %q, %q", access, refresh)
	}
}

func TestSecondUnauthorizedIsFinal(t *testing.T) {
	var refreshes, hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			refreshes.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"auth_token": "access-2", "refresh": "refresh-2"})
			return
		}
		hits.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"_error_message": "Invalid token"})
	}, func(c *Config) {
		c.AuthToken = "access-1"
		c.RefreshToken = "refresh-1"
	})

	_, err := tc.Do(context.Background(), http.MethodGet, "/projects")
	var authError *AuthenticationError
	if !errors.As(err, &authError) || authError.StatusCode != 401 {
		t.Fatalf("error = %v, want *AuthenticationError 401", err)
	}
	if refreshes.Load() != 1 || hits.Load() != 2 {
		t.Errorf("refreshes = %d, hits = %d; want 1, 2", refreshes.Load(), hits.Load())
	}
}

func TestUnauthorizedWithoutRefreshToken(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"_error_message": "Invalid token"})
	}, func(c *Config) { c.AuthToken = "access-1" })

	_, err := tc.Do(context.Background(), http.MethodGet, "/projects")
	if !IsAuthentication(err) {
		t.Fatalf("error = %v, want authentication failure", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestRateLimitHonorsRetryAfter(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			writeJSON(w, http.StatusOK, map[string]int{"id": 4})
		}
	})

	if _, err := tc.Do(context.Background(), http.MethodGet, "/tasks/4"); err != nil {
		t.Fatalf("Do: %v", err)
	}
	slept := tc.clock.Slept()
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 5*time.Second {
		t.Errorf("sleeps = %v, want [2s 5s]", slept)
	}
}

func TestRateLimitCeiling(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "not-a-number")
		w.WriteHeader(http.StatusTooManyRequests)
	}, func(c *Config) {
		c.Retry = backoff.Policy{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: time.Minute, ExponentialBase: 2}
	})

	_, err := tc.Do(context.Background(), http.MethodGet, "/epics")
	if !IsRateLimited(err) {
		t.Fatalf("error = %v, want rate limited", err)
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
	slept := tc.clock.Slept()
	if len(slept) != 2 || slept[0] != 5*time.Second || slept[1] != 5*time.Second {
		t.Errorf("sleeps = %v, want [5s 5s]", slept)
	}
}

func TestRateLimitAndTimeoutShareBudget(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		<-r.Context().Done()
	}, func(c *Config) {
		c.Timeout = 50 * time.Millisecond
		c.Retry = backoff.Policy{MaxRetries: 1, BaseDelay: time.Second, MaxDelay: time.Minute, ExponentialBase: 2}
	})

	_, err := tc.Do(context.Background(), http.MethodGet, "/milestones")
	var timeoutError *TimeoutError
	if !errors.As(err, &timeoutError) || timeoutError.Retries != 1 {
		t.Fatalf("error = %v, want *TimeoutError after 1 retry", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

func TestTransportFailureNotRetried(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()

	client, err := NewClient(Config{
		BaseURL: address + "/api/v1",
		Retry:   testPolicy,
		Logger:  slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	_, err = client.Do(context.Background(), http.MethodGet, "/projects")
	var apiError *APIError
	if !errors.As(err, &apiError) || apiError.StatusCode != 0 || apiError.Err == nil {
		t.Fatalf("error = %#v, want transport *APIError", err)
	}
	if got := client.Metrics().Summary()["GET /projects"].Count; got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestAuthenticateStoresTokens(t *testing.T) {
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("auth request carried an Authorization header")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["type"] != "normal" || body["username"] != "mira" || body["password"] != "s3cret" {
			t.Errorf("auth body = %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 9, "auth_token": "mock-auth", "refresh": "mock-refresh"})
	}, func(c *Config) {
		c.Username = "mira"
		c.Password = "s3cret"
	})

	if err := tc.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	access, refresh := tc.Tokens()
	if access != "mock-auth" || refresh != "mock-refresh" {
		t.Errorf("tokens = %q, %q", access, refresh)
	}
	if err := tc.EnsureAuthenticated(context.Background()); err != nil {
		t.Errorf("EnsureAuthenticated with token held: %v", err)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"_error_message": "Username or password does not matches user."})
	}, func(c *Config) {
		c.Username = "mira"
		c.Password = "wrong"
	})

	err := tc.Authenticate(context.Background())
	var authError *AuthenticationError
	if !errors.As(err, &authError) || authError.StatusCode != 400 {
		t.Fatalf("error = %v, want *AuthenticationError 400", err)
	}
	if access, _ := tc.Tokens(); access != "" {
		t.Errorf("token stored after rejection: %q", access)
	}
}

func TestAuthenticateWithoutCredentials(t *testing.T) {
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if err := tc.Authenticate(context.Background()); !IsAuthentication(err) {
		t.Errorf("error = %v, want authentication failure", err)
	}
	if err := tc.RefreshToken(context.Background()); !IsAuthentication(err) {
		t.Errorf("refresh error = %v, want authentication failure", err)
	}
}

func TestBorrowedPoolSurvivesClose(t *testing.T) {
	pool, err := httppool.New(httppool.Config{BaseURL: "https://taiga.example/api/v1"})
	if err != nil {
		t.Fatalf("httppool.New: %v", err)
	}
	defer pool.Stop()

	client, err := NewClient(Config{Pool: pool})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if client.OwnsPool() {
		t.Fatal("client claims to own a borrowed pool")
	}
	client.Close()
	if !pool.Started() {
		t.Error("client Close stopped a borrowed pool")
	}
}

func TestOwnedPoolStoppedOnClose(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://taiga.example/api/v1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	client.Close()
	client.Close()
	if client.pool.Started() {
		t.Error("owned pool still running after Close")
	}
}

func TestGetCacheInvalidatedByMutation(t *testing.T) {
	var gets atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			if r.Header.Get("x-disable-pagination") != "True" {
				t.Errorf("list request missing pagination header")
			}
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}, func(c *Config) {
		c.Cache = cache.New(cache.Config{TTL: time.Minute, Clock: clock.Fake(epoch)})
	})
	ctx := context.Background()

	var issues []Issue
	for range 2 {
		if err := tc.ListJSON(ctx, "/issues", ProjectQuery(3), &issues); err != nil {
			t.Fatalf("ListJSON: %v", err)
		}
	}
	if gets.Load() != 1 {
		t.Errorf("GETs = %d, want 1 (second served from cache)", gets.Load())
	}

	if err := tc.Delete(ctx, "/issues/1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := tc.ListJSON(ctx, "/issues", ProjectQuery(3), &issues); err != nil {
		t.Fatalf("ListJSON: %v", err)
	}
	if gets.Load() != 2 {
		t.Errorf("GETs = %d, want 2 after invalidation", gets.Load())
	}
}

func TestJSONHelpersEmptyBody(t *testing.T) {
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	result := map[string]any{}
	if err := tc.PostJSON(context.Background(), "/projects/1/create_tag", map[string]string{"tag": "bug"}, &result); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("result = %v, want empty", result)
	}
}

func TestCallerHeaderOverridesAuthorization(t *testing.T) {
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Application xyz" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}, func(c *Config) { c.AuthToken = "access-1" })

	if _, err := tc.Do(context.Background(), http.MethodGet, "/users/me", httppool.WithHeader("Authorization", "Application xyz")); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestThrottleHoldsRequestsBackWithinBurst(t *testing.T) {
	var hits atomic.Int32
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"id": 1})
	}, func(config *Config) {
		config.RequestsPerSecond = 0.01
		config.Burst = 1
	})

	var project map[string]any
	if err := tc.GetJSON(context.Background(), "/projects/1", nil, &project); err != nil {
		t.Fatalf("first GetJSON: %v", err)
	}

	// The next token is 100s away; the limiter refuses to wait past
	// the deadline instead of blocking.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := tc.GetJSON(ctx, "/projects/1", nil, &project); err == nil {
		t.Fatal("second GetJSON succeeded despite the throttle")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

// A GET that read the old state before a PATCH landed must not be
// cached once the PATCH has invalidated the cache.
func TestInFlightGetNotCachedAcrossMutation(t *testing.T) {
	var (
		mu   sync.Mutex
		name = "old"
	)
	var gets atomic.Int32
	held := make(chan struct{})
	release := make(chan struct{})
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			mu.Lock()
			current := name
			mu.Unlock()
			if gets.Add(1) == 1 {
				close(held)
				<-release
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "name": current})
		case http.MethodPatch:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			name = body["name"].(string)
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{"id": 1, "name": body["name"]})
		}
	}, func(config *Config) {
		config.Cache = cache.New(cache.Config{TTL: time.Hour, Clock: clock.Fake(epoch)})
	})
	ctx := context.Background()

	type project struct {
		Name string `json:"name"`
	}
	var first project
	done := make(chan error, 1)
	go func() { done <- tc.GetJSON(ctx, "/projects/1", nil, &first) }()
	testutil.RequireClosed(t, held, 5*time.Second, "first GET did not reach the server")

	if err := tc.PatchJSON(ctx, "/projects/1", map[string]any{"name": "new"}, nil); err != nil {
		t.Fatalf("PatchJSON: %v", err)
	}
	close(release)
	if err := testutil.RequireReceive(t, done, 5*time.Second, "first GET did not finish"); err != nil {
		t.Fatalf("first GetJSON: %v", err)
	}
	if first.Name != "old" {
		t.Fatalf("first GET name = %q, want the pre-PATCH value", first.Name)
	}

	var fresh project
	if err := tc.GetJSON(ctx, "/projects/1", nil, &fresh); err != nil {
		t.Fatalf("GetJSON after PATCH: %v", err)
	}
	if fresh.Name != "new" {
		t.Errorf("GET after PATCH name = %q, want %q (stale cached read)", fresh.Name, "new")
	}
	if got := gets.Load(); got != 2 {
		t.Errorf("server saw %d GETs, want 2", got)
	}
}

// Canceling the caller that started a refresh must not abort the
// shared request for the others.
func TestRefreshSurvivesFirstCallerCancel(t *testing.T) {
	var refreshes atomic.Int32
	var aborted atomic.Bool
	held := make(chan struct{})
	release := make(chan struct{})
	tc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/refresh" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if refreshes.Add(1) == 1 {
			close(held)
			select {
			case <-release:
			case <-r.Context().Done():
				aborted.Store(true)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"auth_token": "token-2", "refresh": "refresh-2"})
	}, func(c *Config) { c.RefreshToken = "refresh-1" })

	firstContext, cancelFirst := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- tc.RefreshToken(firstContext) }()
	testutil.RequireClosed(t, held, 5*time.Second, "refresh did not reach the server")

	cancelFirst()
	if err := testutil.RequireReceive(t, first, 5*time.Second, "canceled caller did not return"); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled caller error = %v, want context.Canceled", err)
	}

	second := make(chan error, 1)
	go func() { second <- tc.RefreshToken(context.Background()) }()
	close(release)
	if err := testutil.RequireReceive(t, second, 5*time.Second, "second caller did not return"); err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if aborted.Load() {
		t.Error("shared refresh request was aborted by the first caller's cancel")
	}
	if access, refresh := tc.Tokens(); access != "token-2" || refresh != "refresh-2" {
		t.Errorf("tokens = %q, %q", access, refresh)
	}
}
