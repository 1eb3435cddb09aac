package studio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:1234" {
		t.Fatalf("url = %q, want http://example.com:1234", u.String())
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestClient_FetchesProjectResources(t *testing.T) {
	t.Parallel()

	var (
		mu         sync.Mutex
		paths      []string
		userAgent  string
		auth       string
		requestIDs []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		userAgent = r.Header.Get("User-Agent")
		auth = r.Header.Get("Authorization")
		requestIDs = append(requestIDs, r.Header.Get("X-Request-ID"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/health":
			_ = json.NewEncoder(w).Encode(Health{Status: "ok", Version: "1.2"})
		case "/api/projects":
			_ = json.NewEncoder(w).Encode(map[string]any{"items": []Project{{ID: "p1", Name: "Pilot"}}})
		case "/api/projects/p1/tasks":
			_ = json.NewEncoder(w).Encode(map[string]any{"items": []Task{{
				ID:       "t1",
				Title:    "Storyboard",
				Subtasks: []Subtask{{ID: "s1", Status: "done"}, {ID: "s2", Status: "todo"}},
			}}})
		case "/api/projects/p1/characters":
			_ = json.NewEncoder(w).Encode(map[string]any{"items": []Character{{ID: "c1", Name: "Mira"}}})
		case "/api/projects/p1/findings":
			_ = json.NewEncoder(w).Encode(map[string]any{"items": []Finding{{
				ID:  "f1",
				Box: &BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4},
			}}})
		case "/api/projects/p1/batches":
			_ = json.NewEncoder(w).Encode(map[string]any{"items": []Batch{{ID: "b1", Total: 4, Processed: 1}}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithToken(" secret "), WithUserAgent("framer-test/1"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	health, err := c.Health(ctx)
	if err != nil || !health.OK() {
		t.Fatalf("Health = %#v, %v; want ok", health, err)
	}
	projects, err := c.FetchProjects(ctx)
	if err != nil || len(projects) != 1 || projects[0].ID != "p1" {
		t.Fatalf("FetchProjects = %#v, %v; want p1", projects, err)
	}
	tasks, err := c.FetchTasks(ctx, "p1")
	if err != nil || len(tasks) != 1 {
		t.Fatalf("FetchTasks = %#v, %v; want 1 task", tasks, err)
	}
	if done, total := tasks[0].Progress(); done != 1 || total != 2 {
		t.Fatalf("Progress = %d/%d, want 1/2", done, total)
	}
	chars, err := c.FetchCharacters(ctx, "p1")
	if err != nil || len(chars) != 1 || chars[0].Name != "Mira" {
		t.Fatalf("FetchCharacters = %#v, %v; want Mira", chars, err)
	}
	findings, err := c.FetchFindings(ctx, "p1")
	if err != nil || len(findings) != 1 || !findings[0].HasBox() {
		t.Fatalf("FetchFindings = %#v, %v; want one boxed finding", findings, err)
	}
	if findings[0].Box.Width != 0.3 {
		t.Fatalf("finding box = %v, want width 0.3", findings[0].Box)
	}
	batches, err := c.FetchBatches(ctx, "p1")
	if err != nil || len(batches) != 1 || batches[0].Percent() != 0.25 {
		t.Fatalf("FetchBatches = %#v, %v; want 25%% batch", batches, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if userAgent != "framer-test/1" {
		t.Fatalf("User-Agent = %q, want framer-test/1", userAgent)
	}
	if auth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want Bearer secret", auth)
	}
	seen := make(map[string]bool)
	for _, id := range requestIDs {
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("X-Request-ID %q is not a uuid", id)
		}
		if seen[id] {
			t.Fatalf("X-Request-ID %q reused", id)
		}
		seen[id] = true
	}
	if len(paths) != 6 {
		t.Fatalf("requests = %v, want 6", paths)
	}
}

func TestClient_ProjectIDRequired(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchFindings(context.Background(), "  "); err == nil {
		t.Fatalf("FetchFindings returned nil error, want project id error")
	}
}

func TestClient_UpdateFindingBox(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotContentType string
	var gotBox BoundingBox
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBox); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(Finding{ID: "f 1", Box: &gotBox})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithMutationRate(0))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	box := BoundingBox{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}
	finding, err := c.UpdateFindingBox(context.Background(), "f 1", box)
	if err != nil {
		t.Fatalf("UpdateFindingBox returned error: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("method = %q, want PATCH", gotMethod)
	}
	if gotPath != "/api/findings/f%201/bbox" {
		t.Fatalf("path = %q, want escaped finding id", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBox != box {
		t.Fatalf("sent box = %v, want %v", gotBox, box)
	}
	if finding.Box == nil || *finding.Box != box {
		t.Fatalf("returned finding box = %v, want %v", finding.Box, box)
	}

	if err := c.SaveFindingBox(context.Background(), "f1", BoundingBox{X: 0.9, Width: 0.5, Height: 0.1}); err == nil {
		t.Fatalf("SaveFindingBox accepted a box outside the image")
	}
	if err := c.SaveFindingBox(context.Background(), "", box); err == nil {
		t.Fatalf("SaveFindingBox accepted an empty id")
	}
}

func TestClient_MutationRateHonorsContext(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", WithMutationRate(0.001))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	// Drain the single burst token so the next write has to wait.
	c.mutations.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.UpdateFindingBox(ctx, "f1", BoundingBox{Width: 0.1, Height: 0.1})
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("UpdateFindingBox error = %v, want rate limit error", err)
	}
}

func TestClient_APIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/projects":
			http.Error(w, "nope", http.StatusInternalServerError)
		case "/api/findings/f1/bbox":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":"box too small"}`))
		case "/api/projects/p1/findings":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"token expired"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.Health(ctx); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Health error = %v, want decode response error", err)
	}

	_, err = c.FetchProjects(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError || apiErr.Message != "nope" {
		t.Fatalf("FetchProjects error = %#v, want APIError 500 nope", err)
	}

	_, err = c.UpdateFindingBox(ctx, "f1", BoundingBox{Width: 0.2, Height: 0.2})
	if err == nil || !strings.Contains(err.Error(), "returned status 422: box too small") {
		t.Fatalf("UpdateFindingBox error = %v, want 422 with detail", err)
	}

	_, err = c.FetchFindings(ctx, "p1")
	if !IsUnauthorized(err) {
		t.Fatalf("FetchFindings error = %v, want unauthorized", err)
	}

	_, err = c.FetchTasks(ctx, "missing")
	if !IsNotFound(err) {
		t.Fatalf("FetchTasks error = %v, want not found", err)
	}
}

func TestErrorMessage_Shapes(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"detail":"bad box"}`, "bad box"},
		{`{"error":"boom"}`, "boom"},
		{`{"message":"hi"}`, "hi"},
		{`{"detail":[{"loc":["x"]}]}`, `[{"loc":["x"]}]`},
		{"  plain text \n", "plain text"},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.raw)); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
