package coordinator

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"taskboard/internal/model"
	"taskboard/internal/mutate"
	"taskboard/internal/state"
	"taskboard/internal/wire"
)

// GuestStateKey is the key-value entry holding the guest board.
const GuestStateKey = "guest.state"

// KV is the local key-value persistence used in guest mode. It stores opaque strings.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Guest is the local-only backend. It invents ids and timestamps itself and mirrors the whole
// board into a KV blob after every change.
type Guest struct {
	kv  KV
	now func() time.Time

	mu      sync.Mutex
	entropy io.Reader

	// persistMu is held across the KV write so blobs land in version order.
	persistMu sync.Mutex
	persisted uint64
}

func NewGuest(kv KV) *Guest {
	return &Guest{
		kv:      kv,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *Guest) Mode() string { return ModeGuest }

func (g *Guest) Fetch(ctx context.Context) ([]model.Workspace, error) {
	raw, ok, err := g.kv.Get(GuestStateKey)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var st state.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, err
	}
	return st.Workspaces, nil
}

// Persist writes st as the guest blob unless a newer version has already been written.
func (g *Guest) Persist(st state.State, version uint64) error {
	g.persistMu.Lock()
	defer g.persistMu.Unlock()
	if version <= g.persisted {
		return nil
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := g.kv.Set(GuestStateKey, string(b)); err != nil {
		return err
	}
	g.persisted = version
	return nil
}

// Do synthesizes what a server would have returned for op.
func (g *Guest) Do(ctx context.Context, pre state.State, op wire.Op) (wire.Result, error) {
	now := g.now().UTC()
	switch o := op.(type) {
	case wire.WorkspaceCreate:
		return wire.Result{Workspace: &model.Workspace{
			ID:         g.newID(now),
			Name:       o.Name,
			Selected:   true,
			GroupOrder: []string{},
			Groups:     []model.Group{},
			CreatedAt:  now,
		}}, nil

	case wire.GroupCreate:
		if _, _, ok := pre.FindWorkspace(o.WorkspaceID); !ok {
			return wire.Result{}, &mutate.NotFoundError{Kind: "workspace", ID: o.WorkspaceID}
		}
		return wire.Result{Group: &model.Group{
			ID:          g.newID(now),
			WorkspaceID: o.WorkspaceID,
			Name:        o.Name,
			TaskOrder:   []string{},
			Tasks:       []model.Task{},
			CreatedAt:   now,
		}}, nil

	case wire.TaskCreate:
		if _, ok := pre.FindGroup(o.GroupID); !ok {
			return wire.Result{}, &mutate.NotFoundError{Kind: "group", ID: o.GroupID}
		}
		id := g.newID(now)
		return wire.Result{Task: &model.Task{
			ID:          id,
			GroupID:     o.GroupID,
			Name:        o.Name,
			Description: o.Description,
			Activities:  []model.Activity{g.activity(id, mutate.ActivityTaskCreated, now)},
			CreatedAt:   now,
		}}, nil

	case wire.TaskUpdate:
		ref, ok := pre.FindTask(o.ID)
		if !ok {
			return wire.Result{}, &mutate.NotFoundError{Kind: "task", ID: o.ID}
		}
		t := ref.Task
		res := wire.Result{}
		if note := mutate.ContentActivity(t.Name, t.Description, o.Name, o.Description); note != "" {
			a := g.activity(t.ID, note, now)
			res.Activity = &a
		}
		t.Name, t.Description = o.Name, o.Description
		t.Activities = nil
		res.Task = &t
		return res, nil

	case wire.TaskMove:
		ref, ok := pre.FindTask(o.ID)
		if !ok {
			return wire.Result{}, &mutate.NotFoundError{Kind: "task", ID: o.ID}
		}
		res := wire.Result{}
		if ref.Task.GroupID != o.GroupID {
			dst, ok := pre.FindGroup(o.GroupID)
			if !ok {
				return wire.Result{}, &mutate.NotFoundError{Kind: "group", ID: o.GroupID}
			}
			a := g.activity(o.ID, mutate.MoveActivity(dst.Group.Name), now)
			res.Activity = &a
		}
		return res, nil
	}
	return wire.Result{}, nil
}

func (g *Guest) activity(taskID, content string, now time.Time) model.Activity {
	return model.Activity{ID: g.newID(now), TaskID: taskID, Content: content, CreatedAt: now}
}

func (g *Guest) newID(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), g.entropy).String()
}
