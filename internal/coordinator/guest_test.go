package coordinator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"taskboard/internal/model"
	"taskboard/internal/mutate"
	"taskboard/internal/state"
)

type memKV struct {
	m    map[string]string
	sets int
}

func (k *memKV) Get(key string) (string, bool, error) {
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(key, value string) error {
	k.m[key] = value
	k.sets++
	return nil
}

func guestBoard(t *testing.T) (*Coordinator, *memKV) {
	t.Helper()
	kv := &memKV{m: map[string]string{}}
	c := New(state.NewStore(), NewGuest(kv), nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c, kv
}

func TestGuest_FullFlowSynthesizesIDsAndActivities(t *testing.T) {
	ctx := context.Background()
	c, kv := guestBoard(t)
	if !c.Current().Empty {
		t.Fatalf("fresh guest board should be empty")
	}

	ws, err := c.CreateWorkspace(ctx, "Home")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	if len(ws.ID) != 26 {
		t.Fatalf("expected ulid id, got %q", ws.ID)
	}
	todo, err := c.CreateGroup(ctx, ws.ID, "Todo")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	done, err := c.CreateGroup(ctx, ws.ID, "Done")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	tk, err := c.CreateTask(ctx, todo.ID, "Buy milk", "")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if len(tk.Activities) != 1 || tk.Activities[0].Content != mutate.ActivityTaskCreated {
		t.Fatalf("created task activities = %+v", tk.Activities)
	}

	if err := c.UpdateTask(ctx, tk.ID, "Buy milk", ""); err != nil {
		t.Fatalf("UpdateTask unchanged: %v", err)
	}
	if err := c.UpdateTask(ctx, tk.ID, "Buy milk", "2%"); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if err := c.MoveTask(ctx, mutate.TaskMove{SourceGroupID: todo.ID, DestGroupID: done.ID, TaskID: tk.ID, SourceIndex: 0, DestIndex: 0}); err != nil {
		t.Fatalf("MoveTask: %v", err)
	}

	got, ok := c.Current().Task(tk.ID)
	if !ok {
		t.Fatalf("task missing from view")
	}
	var contents []string
	for _, a := range got.Activities {
		contents = append(contents, a.Content)
	}
	want := []string{"Task created", "Task description updated: 2%", "Task moved to group Done"}
	if strings.Join(contents, "|") != strings.Join(want, "|") {
		t.Fatalf("activities = %q, want %q", contents, want)
	}

	var blob state.State
	if err := json.Unmarshal([]byte(kv.m[GuestStateKey]), &blob); err != nil {
		t.Fatalf("guest blob: %v", err)
	}
	if ref, ok := blob.FindTask(tk.ID); !ok || ref.Task.GroupID != done.ID {
		t.Fatalf("mirror not up to date: %+v", ref)
	}

	// A second session reads the mirror once at startup.
	again := New(state.NewStore(), NewGuest(kv), nil)
	if err := again.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := again.Current().Task(tk.ID); !ok {
		t.Fatalf("reloaded board lost the task")
	}
}

func TestGuest_SameGroupReorderHasNoActivity(t *testing.T) {
	ctx := context.Background()
	c, _ := guestBoard(t)
	ws, _ := c.CreateWorkspace(ctx, "Home")
	g, _ := c.CreateGroup(ctx, ws.ID, "Todo")
	t1, _ := c.CreateTask(ctx, g.ID, "one", "")
	_, _ = c.CreateTask(ctx, g.ID, "two", "")

	if err := c.MoveTask(ctx, mutate.TaskMove{SourceGroupID: g.ID, DestGroupID: g.ID, TaskID: t1.ID, SourceIndex: 0, DestIndex: 1}); err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	got, _ := c.Current().Task(t1.ID)
	if len(got.Activities) != 1 {
		t.Fatalf("same-group reorder produced activities: %+v", got.Activities)
	}
	if c.Current().Workspace.OrderedGroups[0].OrderedTasks[1].ID != t1.ID {
		t.Fatalf("reorder not applied")
	}
}

func TestGuest_DeleteSelectedWorkspace(t *testing.T) {
	ctx := context.Background()
	c, _ := guestBoard(t)
	w1, _ := c.CreateWorkspace(ctx, "One")
	w2, _ := c.CreateWorkspace(ctx, "Two")
	if err := c.SelectWorkspace(ctx, w1.ID); err != nil {
		t.Fatalf("SelectWorkspace: %v", err)
	}
	if err := c.DeleteWorkspace(ctx, w1.ID); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}
	if cur := c.Current(); cur.Workspace.ID != w2.ID {
		t.Fatalf("expected %s selected, got %s", w2.ID, cur.Workspace.ID)
	}
	if err := c.DeleteWorkspace(ctx, w2.ID); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}
	if !c.Current().Empty {
		t.Fatalf("expected empty view")
	}
}

// heldKV blocks the first Set after hold is armed until release is closed.
type heldKV struct {
	mu      sync.Mutex
	m       map[string]string
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (k *heldKV) Get(key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *heldKV) Set(key, value string) error {
	k.mu.Lock()
	wait := k.armed
	k.armed = false
	k.mu.Unlock()
	if wait {
		close(k.entered)
		<-k.release
	}
	k.mu.Lock()
	k.m[key] = value
	k.mu.Unlock()
	return nil
}

func (k *heldKV) hold() {
	k.mu.Lock()
	k.armed = true
	k.entered = make(chan struct{})
	k.release = make(chan struct{})
	k.mu.Unlock()
}

func groupNames(t *testing.T, c *Coordinator) []string {
	t.Helper()
	var out []string
	for _, g := range c.Current().Workspace.OrderedGroups {
		out = append(out, g.Name)
	}
	return out
}

func TestGuest_SlowWriteNeverOverwritesNewerBlob(t *testing.T) {
	ctx := context.Background()
	kv := &heldKV{m: map[string]string{}}
	c := New(state.NewStore(), NewGuest(kv), nil)
	if err := c.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ws, _ := c.CreateWorkspace(ctx, "Home")
	g1, _ := c.CreateGroup(ctx, ws.ID, "Todo")
	g2, _ := c.CreateGroup(ctx, ws.ID, "Done")

	kv.hold()
	errs := make(chan error, 2)
	go func() { errs <- c.RenameGroup(ctx, g1.ID, "Doing") }()
	<-kv.entered
	go func() { errs <- c.RenameGroup(ctx, g2.ID, "Shipped") }()

	deadline := time.Now().Add(2 * time.Second)
	for !sameIDs(groupNames(t, c), []string{"Doing", "Shipped"}) {
		if time.Now().After(deadline) {
			close(kv.release)
			t.Fatalf("second rename never committed: %v", groupNames(t, c))
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(kv.release)
	for range 2 {
		if err := <-errs; err != nil {
			t.Fatalf("RenameGroup: %v", err)
		}
	}

	reloaded := New(state.NewStore(), NewGuest(kv), nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := groupNames(t, reloaded); !sameIDs(got, []string{"Doing", "Shipped"}) {
		t.Fatalf("reloaded guest blob = %v", got)
	}
}

func TestGuest_PersistDropsOlderVersion(t *testing.T) {
	kv := &memKV{m: map[string]string{}}
	g := NewGuest(kv)
	newer := state.State{Workspaces: []model.Workspace{{ID: "w1", Name: "newer", Selected: true}}}
	older := state.State{Workspaces: []model.Workspace{{ID: "w1", Name: "older", Selected: true}}}
	if err := g.Persist(newer, 5); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if err := g.Persist(older, 4); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if kv.sets != 1 || !strings.Contains(kv.m[GuestStateKey], "newer") {
		t.Fatalf("older version overwrote the blob: %s", kv.m[GuestStateKey])
	}
}
