package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"taskboard/internal/auth"
	"taskboard/internal/store"
	"taskboard/internal/web"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	cmd := NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("TASKBOARD_CONFIG_DIR", t.TempDir())
	for _, k := range []string{"TASKBOARD_SERVER", "TASKBOARD_TOKEN", "TASKBOARD_DIR", "TASKBOARD_GUEST", "TASKBOARD_FORMAT"} {
		t.Setenv(k, "")
	}
}

func mustRun(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("taskboard %v: %v\nstderr:\n%s", args, err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("stdout is not json: %v\n%s", err, stdout)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected data key: %s", stdout)
	}
	return env
}

func dataString(env map[string]any, key string) string {
	m, _ := env["data"].(map[string]any)
	s, _ := m[key].(string)
	return s
}

func TestGuestBoardFlow(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	ws := mustRun(t, "--dir", dir, "workspaces", "create", "Home")
	if dataString(ws, "name") != "Home" {
		t.Fatalf("workspace: %v", ws)
	}
	todo := dataString(mustRun(t, "--dir", dir, "groups", "create", "Todo"), "id")
	done := dataString(mustRun(t, "--dir", dir, "groups", "create", "Done"), "id")

	var ids []string
	for _, n := range []string{"a", "b", "c"} {
		ids = append(ids, dataString(mustRun(t, "--dir", dir, "tasks", "create", todo, n), "id"))
	}

	moved := mustRun(t, "--dir", dir, "tasks", "move", ids[2], "--group", done, "--index", "0")
	if dataString(moved, "groupId") != done || dataString(moved, "groupName") != "Done" {
		t.Fatalf("move result: %v", moved)
	}
	acts, _ := moved["data"].(map[string]any)["activities"].([]any)
	if len(acts) != 2 {
		t.Fatalf("expected created+moved activities, got %v", acts)
	}

	mustRun(t, "--dir", dir, "tasks", "move", ids[1], "--index", "0")
	shown := mustRun(t, "--dir", dir, "tasks", "show", ids[1])
	if idx, _ := shown["data"].(map[string]any)["index"].(float64); idx != 0 {
		t.Fatalf("reorder index = %v", idx)
	}

	stdout, _, err := runCLI(t, []string{"--dir", dir, "--format", "text", "board"})
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	out := string(stdout)
	if !strings.Contains(out, "Todo (2)") || !strings.Contains(out, "Done (1)") {
		t.Fatalf("board text:\n%s", out)
	}
	if strings.Index(out, "0. b") > strings.Index(out, "1. a") {
		t.Fatalf("unexpected order:\n%s", out)
	}

	mustRun(t, "--dir", dir, "tasks", "edit", ids[0], "--description", "**notes**")
	stdout, _, err = runCLI(t, []string{"--dir", dir, "tasks", "show", ids[0], "--render"})
	if err != nil || !strings.Contains(string(stdout), "notes") {
		t.Fatalf("render: %v\n%s", err, stdout)
	}
}

func TestEmptyNameIsRejected(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	_, stderr, err := runCLI(t, []string{"--dir", dir, "workspaces", "create", "  "})
	if err == nil || !strings.Contains(string(stderr), "must not be empty") {
		t.Fatalf("expected empty-name error, got %v\n%s", err, stderr)
	}
	list := mustRun(t, "--dir", dir, "workspaces", "list")
	if items, _ := list["data"].([]any); len(items) != 0 {
		t.Fatalf("workspace created despite error: %v", items)
	}
}

func TestDeleteSelectedWorkspaceSelectsFirst(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	first := dataString(mustRun(t, "--dir", dir, "workspaces", "create", "One"), "id")
	second := dataString(mustRun(t, "--dir", dir, "workspaces", "create", "Two"), "id")
	out := mustRun(t, "--dir", dir, "workspaces", "delete", second)
	if dataString(out, "selected") != first {
		t.Fatalf("expected %s selected, got %v", first, out)
	}
}

func TestEDNOutput(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	stdout, _, err := runCLI(t, []string{"--dir", dir, "--format", "edn", "workspaces", "create", "Home"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(string(stdout), "{:data {") || !strings.Contains(string(stdout), `:name "Home"`) {
		t.Fatalf("edn: %s", stdout)
	}
}

func TestRemoteLoginFlow(t *testing.T) {
	isolate(t)
	ctx := context.Background()
	repo, err := store.OpenRepo(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("OpenRepo: %v", err)
	}
	defer repo.Close()
	secret := []byte("cli-secret")
	srv, err := web.NewServer(web.ServerConfig{Addr: ":0", Repo: repo, Secret: secret, Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	tok, err := auth.NewToken("alice", time.Hour, secret)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	if _, stderr, err := runCLI(t, []string{"login", "--server", ts.URL, "--token", "bogus"}); err == nil {
		t.Fatalf("login with a bad token succeeded: %s", stderr)
	}
	mustRun(t, "login", "--server", ts.URL, "--token", tok)

	wsID := dataString(mustRun(t, "workspaces", "create", "Remote"), "id")
	gID := dataString(mustRun(t, "groups", "create", "Todo"), "id")
	mustRun(t, "tasks", "create", gID, "synced")

	wss, err := repo.Workspaces(ctx, "alice")
	if err != nil {
		t.Fatalf("Workspaces: %v", err)
	}
	if len(wss) != 1 || wss[0].ID != wsID || len(wss[0].Groups) != 1 || len(wss[0].Groups[0].Tasks) != 1 {
		t.Fatalf("server state: %+v", wss)
	}

	mustRun(t, "logout")
	guestDir := t.TempDir()
	list := mustRun(t, "--dir", guestDir, "workspaces", "list")
	if items, _ := list["data"].([]any); len(items) != 0 {
		t.Fatalf("guest board should be empty after logout: %v", items)
	}
}

func TestTokenCommand(t *testing.T) {
	isolate(t)
	t.Setenv("TASKBOARD_JWT_SECRET", "s3cret")
	env := mustRun(t, "token", "--user", "bob")
	user, err := auth.ValidateToken(dataString(env, "token"), []byte("s3cret"))
	if err != nil || user != "bob" {
		t.Fatalf("token: %q %v", user, err)
	}
}

func TestBackupExportImport(t *testing.T) {
	isolate(t)
	src := t.TempDir()
	id := dataString(mustRun(t, "--dir", src, "workspaces", "create", "Home"), "id")
	mustRun(t, "--dir", src, "groups", "create", "Todo")

	path := filepath.Join(t.TempDir(), "board.jsonl")
	mustRun(t, "--dir", src, "backup", "export", path)

	dst := t.TempDir()
	mustRun(t, "--dir", dst, "workspaces", "create", "Scratch")
	env := mustRun(t, "--dir", dst, "backup", "import", path)
	list, _ := env["data"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected one restored workspace: %v", env)
	}
	if ws, _ := list[0].(map[string]any); ws["id"] != id {
		t.Fatalf("restored workspace mismatch: %v", ws)
	}

	board := mustRun(t, "--dir", dst, "board")
	if !strings.Contains(string(mustJSON(t, board)), "Todo") {
		t.Fatalf("restored board lost its group: %v", board)
	}
}

func TestBackupRefusesRemote(t *testing.T) {
	isolate(t)
	_, stderr, err := runCLI(t, []string{"--server", "http://127.0.0.1:1", "backup", "export", filepath.Join(t.TempDir(), "x.jsonl")})
	if err == nil || !strings.Contains(string(stderr), "guest board") {
		t.Fatalf("expected guest-only error, got %v\n%s", err, stderr)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
