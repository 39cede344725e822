package coordinator

import (
	"context"

	"taskboard/internal/model"
	"taskboard/internal/state"
	"taskboard/internal/wire"
)

const (
	ModeGuest  = "guest"
	ModeRemote = "remote"
)

// Backend is the persistence capability selected once per session.
type Backend interface {
	Mode() string
	// Fetch loads every workspace of the session with groups, tasks and activities.
	Fetch(ctx context.Context) ([]model.Workspace, error)
	// Do persists op. pre is the local state as it was before any optimistic change for op.
	Do(ctx context.Context, pre state.State, op wire.Op) (wire.Result, error)
}

// Mirror is implemented by backends that keep a copy of the whole state after every change.
// version is the store version of st; a mirror must never let an older version overwrite a newer one.
type Mirror interface {
	Persist(st state.State, version uint64) error
}
