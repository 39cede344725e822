package coordinator

import (
	"errors"
	"fmt"

	"taskboard/internal/wire"
)

// ErrBusy is returned when a gesture targets a container that another gesture is still changing.
var ErrBusy = errors.New("another change is still in progress here")

// RemoteError is the single failure reported for a gesture whose backend call failed. Any
// optimistic change has already been rolled back when it is returned; when that is impossible
// the failure is reported as a *RollbackError instead.
type RemoteError struct {
	Op  wire.Kind
	Err error
}

var failureText = map[wire.Kind]string{
	wire.KindWorkspaceCreate: "could not create workspace",
	wire.KindWorkspaceRename: "could not rename workspace",
	wire.KindWorkspaceSelect: "could not switch workspace",
	wire.KindWorkspaceDelete: "could not delete workspace",
	wire.KindGroupCreate:     "could not create group",
	wire.KindGroupRename:     "could not rename group",
	wire.KindGroupMove:       "could not move group",
	wire.KindGroupDelete:     "could not delete group",
	wire.KindTaskCreate:      "could not create task",
	wire.KindTaskUpdate:      "could not update task",
	wire.KindTaskMove:        "could not move task",
	wire.KindTaskDelete:      "could not delete task",
}

func (e *RemoteError) Error() string {
	msg, ok := failureText[e.Op]
	if !ok {
		msg = fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// RollbackError reports a failed gesture whose local change could not be undone. Local state
// may then differ from the backend; Reloaded says whether it was replaced by a fresh fetch.
type RollbackError struct {
	Remote   *RemoteError
	Rollback error
	Reloaded bool
}

func (e *RollbackError) Error() string {
	if e.Reloaded {
		return fmt.Sprintf("%v (undo failed: %v; board reloaded)", e.Remote, e.Rollback)
	}
	return fmt.Sprintf("%v (undo failed: %v; refresh the board)", e.Remote, e.Rollback)
}

func (e *RollbackError) Unwrap() []error { return []error{e.Remote, e.Rollback} }
