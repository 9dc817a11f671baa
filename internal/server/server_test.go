package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"planwise/internal/agent"
	"planwise/internal/db"
	"planwise/internal/llm"
	"planwise/internal/migrate"
	"planwise/internal/repo"
	"planwise/internal/server"
)

type fakeBackend struct {
	replies []string
	down    bool
}

func (f *fakeBackend) Complete(ctx context.Context, system, user string, opts llm.Options) (string, error) {
	if len(f.replies) == 0 {
		return "ok", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeBackend) Model() string { return "fake-model" }
func (f *fakeBackend) Enabled() bool { return !f.down }

type testServer struct {
	URL   string
	close func()
}

func newTestServer(t *testing.T, backend llm.Client, jwtSecret string) *testServer {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := repo.Repo{DB: conn}
	ag := agent.New(backend, store, zap.NewNop())
	handler, err := server.New(server.Config{
		Agent: ag,
		Store: store,
		Auth:  server.AuthConfig{JWTSecret: jwtSecret},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL: "http://" + ln.Addr().String(),
		close: func() {
			srv.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.close)
	return ts
}

func doJSON(t *testing.T, method, url string, payload any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("decode response %q: %v", data, err)
		}
	}
	return resp.StatusCode, out
}

func createProject(t *testing.T, ts *testServer, name string) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, ts.URL+"/v1/projects", map[string]any{"name": name}, nil)
	if status != http.StatusCreated {
		t.Fatalf("create project: status %d body %v", status, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("no project id in %v", body)
	}
	return id
}

func TestAgentExecuteCreatesTaskEndToEnd(t *testing.T) {
	taskList := "Sure, here is the task:\n```json\n" + `{
  "tasks": [{
    "name": "Implement rate limiting",
    "description": "Protect the public API",
    "priority": "high",
    "estimated_hours": 8
  }]
}` + "\n```"
	backend := &fakeBackend{replies: []string{taskList, "I created the rate limiting task."}}
	ts := newTestServer(t, backend, "")
	projectID := createProject(t, ts, "Platform")

	status, body := doJSON(t, http.MethodPost, ts.URL+"/v1/agent/execute", map[string]any{
		"prompt":  "Add a task to implement rate limiting",
		"context": map[string]any{"project_id": projectID},
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("status %d body %v", status, body)
	}
	if body["action"] != "create_task" || body["success"] != true {
		t.Fatalf("body = %v", body)
	}
	if body["message"] != "I created the rate limiting task." {
		t.Errorf("message = %v", body["message"])
	}

	// The list endpoint returns a JSON array, so decode it raw.
	resp, err := http.Get(ts.URL + "/v1/projects/" + projectID + "/tasks")
	if err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	defer resp.Body.Close()
	var tasks []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d", len(tasks))
	}
	if tasks[0]["content"] != "Implement rate limiting" {
		t.Errorf("content = %v", tasks[0]["content"])
	}
	tags, _ := tasks[0]["tags"].([]any)
	if len(tags) != 1 || tags[0] != "ai-generated" {
		t.Errorf("tags = %v", tags)
	}
}

func TestAgentExecuteBackendNotConfigured(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{down: true}, "")
	status, body := doJSON(t, http.MethodPost, ts.URL+"/v1/agent/execute", map[string]any{
		"prompt": "Create a project for food delivery",
	}, nil)
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d body %v", status, body)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != "backend_not_configured" {
		t.Errorf("error = %v", errBody)
	}
}

func TestAgentExecuteMissingProjectContext(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, "")
	status, body := doJSON(t, http.MethodPost, ts.URL+"/v1/agent/execute", map[string]any{
		"prompt": "Move the login task to Done",
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d body %v", status, body)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != "bad_request" {
		t.Errorf("error = %v", errBody)
	}
}

func TestAgentExecuteExtractionFailure(t *testing.T) {
	garbage := strings.Repeat("not json at all ", 40)
	ts := newTestServer(t, &fakeBackend{replies: []string{garbage}}, "")
	status, body := doJSON(t, http.MethodPost, ts.URL+"/v1/agent/execute", map[string]any{
		"prompt": "Create a project for food delivery",
	}, nil)
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d body %v", status, body)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != "extraction_failed" {
		t.Fatalf("error = %v", errBody)
	}
	details, _ := errBody["details"].(map[string]any)
	raw, _ := details["raw"].(string)
	if !strings.Contains(raw, "not json at all") {
		t.Errorf("details.raw = %q", raw)
	}
}

func TestAgentStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, "")
	status, body := doJSON(t, http.MethodGet, ts.URL+"/v1/agent/status", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["enabled"] != true || body["model"] != "fake-model" {
		t.Errorf("body = %v", body)
	}
}

func TestAgentCapabilitiesEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, "")
	status, body := doJSON(t, http.MethodGet, ts.URL+"/v1/agent/capabilities", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	caps, _ := body["capabilities"].([]any)
	if len(caps) == 0 {
		t.Fatalf("capabilities = %v", body)
	}
}

func TestTaskCRUD(t *testing.T) {
	ts := newTestServer(t, &fakeBackend{}, "")
	projectID := createProject(t, ts, "Platform")

	status, task := doJSON(t, http.MethodPost, ts.URL+"/v1/projects/"+projectID+"/tasks", map[string]any{
		"content":  "Implement login",
		"priority": "high",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("create task: %d %v", status, task)
	}
	taskID, _ := task["id"].(string)

	status, updated := doJSON(t, http.MethodPatch, ts.URL+"/v1/tasks/"+taskID, map[string]any{
		"fields": map[string]any{"status": "Done"},
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("update task: %d %v", status, updated)
	}
	if updated["status"] != "Done" {
		t.Errorf("status = %v", updated["status"])
	}

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/tasks/"+taskID, nil, nil)
	if status != http.StatusNoContent && status != http.StatusOK {
		t.Fatalf("delete task: %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/tasks/"+taskID, nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get deleted task: %d", status)
	}
}

func TestAuthEnforcedWhenSecretConfigured(t *testing.T) {
	const secret = "test-secret"
	ts := newTestServer(t, &fakeBackend{}, secret)

	status, body := doJSON(t, http.MethodGet, ts.URL+"/v1/projects", nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d body %v", status, body)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/projects", nil, map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", signed),
	})
	if status != http.StatusOK {
		t.Fatalf("authorized status = %d", status)
	}

	// Health stays open regardless of auth.
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/health", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}
}
