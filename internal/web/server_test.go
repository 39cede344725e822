package web

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"taskboard/internal/auth"
	"taskboard/internal/store"
	"taskboard/internal/wire"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := store.OpenRepo(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("OpenRepo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	s, err := NewServer(ServerConfig{
		Addr:   "127.0.0.1:0",
		Repo:   repo,
		Secret: testSecret,
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func token(t *testing.T, user string) string {
	t.Helper()
	tok, err := auth.NewToken(user, time.Hour, testSecret)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	return tok
}

func call(t *testing.T, ts *httptest.Server, tok, method, path string, body []byte) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if tok != "" {
		req.Header.Set(auth.HeaderKey, "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func send(t *testing.T, ts *httptest.Server, tok string, op wire.Op) (int, wire.Result) {
	t.Helper()
	body, err := wire.Encode(op)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	method, path := wire.Route(op)
	if method == http.MethodDelete {
		body = nil
	}
	status, b := call(t, ts, tok, method, path, body)
	var res wire.Result
	if status < 300 {
		if err := json.Unmarshal(b, &res); err != nil {
			t.Fatalf("decode result: %v (%s)", err, b)
		}
	}
	return status, res
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	status, b := call(t, ts, "", http.MethodGet, "/api/health", nil)
	if status != http.StatusOK || !strings.Contains(string(b), "ok") {
		t.Fatalf("health: %d %s", status, b)
	}
}

func TestRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	if status, _ := call(t, ts, "", http.MethodGet, "/api/workspaces", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if status, _ := call(t, ts, "garbage", http.MethodGet, "/api/workspaces", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}
}

func TestBoardLifecycle(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1")

	status, res := send(t, ts, tok, wire.WorkspaceCreate{Name: "  Home  "})
	if status != http.StatusCreated || res.Workspace == nil || res.Workspace.Name != "Home" {
		t.Fatalf("create workspace: %d %+v", status, res)
	}
	wsID := res.Workspace.ID

	_, res = send(t, ts, tok, wire.GroupCreate{WorkspaceID: wsID, Name: "Todo"})
	todo := res.Group.ID
	_, res = send(t, ts, tok, wire.GroupCreate{WorkspaceID: wsID, Name: "Done"})
	done := res.Group.ID

	_, res = send(t, ts, tok, wire.TaskCreate{GroupID: todo, Name: "write", Description: "**bold**"})
	taskID := res.Task.ID

	status, res = send(t, ts, tok, wire.TaskMove{ID: taskID, GroupID: done, Index: 0})
	if status != http.StatusOK || res.Activity == nil || res.Activity.Content != "Task moved to group Done" {
		t.Fatalf("move: %d %+v", status, res)
	}

	status, b := call(t, ts, tok, http.MethodGet, wire.ActivitiesPath(taskID), nil)
	if status != http.StatusOK {
		t.Fatalf("activities: %d %s", status, b)
	}
	var acts wire.Result
	if err := json.Unmarshal(b, &acts); err != nil {
		t.Fatalf("decode activities: %v", err)
	}
	if len(acts.Activities) != 2 || acts.Activities[0].Content != "Task created" {
		t.Fatalf("unexpected activities: %+v", acts.Activities)
	}

	status, b = call(t, ts, tok, http.MethodGet, "/api/tasks/"+taskID+"/description", nil)
	var desc map[string]string
	if err := json.Unmarshal(b, &desc); err != nil {
		t.Fatalf("decode description: %v", err)
	}
	if status != http.StatusOK || !strings.Contains(desc["html"], "<strong>bold</strong>") {
		t.Fatalf("description: %d %s", status, b)
	}

	status, b = call(t, ts, tok, http.MethodGet, "/api/workspaces", nil)
	if status != http.StatusOK {
		t.Fatalf("workspaces: %d", status)
	}
	var all wire.Result
	if err := json.Unmarshal(b, &all); err != nil {
		t.Fatalf("decode workspaces: %v", err)
	}
	if len(all.Workspaces) != 1 || len(all.Workspaces[0].Groups) != 2 {
		t.Fatalf("unexpected workspaces: %+v", all.Workspaces)
	}

	if status, _ := send(t, ts, tok, wire.WorkspaceDelete{ID: wsID}); status != http.StatusOK {
		t.Fatalf("delete workspace: %d", status)
	}
	if status, _ := send(t, ts, tok, wire.TaskUpdate{ID: taskID, Name: "x"}); status != http.StatusNotFound {
		t.Fatalf("expected 404 after cascade delete, got %d", status)
	}
}

func TestRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "u1")

	if status, _ := send(t, ts, tok, wire.WorkspaceCreate{Name: "   "}); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", status)
	}
	if status, _ := call(t, ts, tok, http.MethodPost, "/api/workspaces", []byte(`{"op":"nope"}`)); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown op, got %d", status)
	}
	if status, _ := call(t, ts, tok, http.MethodPost, "/api/groups", []byte(`{"op":"workspace.create","name":"x"}`)); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for op under the wrong resource, got %d", status)
	}
	body := []byte(`{"op":"workspace.rename","id":"a","name":"x"}`)
	if status, _ := call(t, ts, tok, http.MethodPatch, "/api/workspaces/b", body); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for path/body mismatch, got %d", status)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	_, res := send(t, ts, token(t, "alice"), wire.WorkspaceCreate{Name: "Alice"})

	status, _ := send(t, ts, token(t, "bob"), wire.WorkspaceRename{ID: res.Workspace.ID, Name: "mine"})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's workspace, got %d", status)
	}
	_, b := call(t, ts, token(t, "bob"), http.MethodGet, "/api/workspaces", nil)
	var all wire.Result
	_ = json.Unmarshal(b, &all)
	if len(all.Workspaces) != 0 {
		t.Fatalf("bob sees alice's workspaces: %+v", all.Workspaces)
	}
}
