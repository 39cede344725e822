package coordinator

import (
	"context"
	"fmt"

	"taskboard/internal/mutate"
)

type DragKind string

const (
	DragGroup DragKind = "group"
	DragTask  DragKind = "task"
)

// Location is a position inside a droppable container: the workspace id for groups, a group id
// for tasks.
type Location struct {
	ContainerID string
	Index       int
}

// DragEvent is the end of a drag-and-drop gesture. Destination is nil when the item was dropped
// outside any valid target.
type DragEvent struct {
	Kind        DragKind
	DraggableID string
	Source      Location
	Destination *Location
}

// DragEnd turns a finished drag into a group or task move.
func (c *Coordinator) DragEnd(ctx context.Context, ev DragEvent) error {
	if ev.Destination == nil {
		return nil
	}
	switch ev.Kind {
	case DragGroup:
		cur := c.store.Current()
		if cur.Empty || cur.Workspace.ID != ev.Source.ContainerID || cur.Workspace.ID != ev.Destination.ContainerID {
			return &mutate.NotFoundError{Kind: "workspace", ID: ev.Source.ContainerID}
		}
		at := cur.GroupIndex(ev.DraggableID)
		if at < 0 {
			return &mutate.NotFoundError{Kind: "group", ID: ev.DraggableID}
		}
		if at != ev.Source.Index {
			return &mutate.StaleIndexError{ContainerID: cur.Workspace.ID, ID: ev.DraggableID, Want: ev.Source.Index, Got: at}
		}
		if at == ev.Destination.Index {
			return nil
		}
		return c.MoveGroup(ctx, ev.DraggableID, ev.Destination.Index)
	case DragTask:
		return c.MoveTask(ctx, mutate.TaskMove{
			SourceGroupID: ev.Source.ContainerID,
			DestGroupID:   ev.Destination.ContainerID,
			TaskID:        ev.DraggableID,
			SourceIndex:   ev.Source.Index,
			DestIndex:     ev.Destination.Index,
		})
	default:
		return fmt.Errorf("unknown drag kind %q", ev.Kind)
	}
}
