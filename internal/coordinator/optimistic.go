package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskboard/internal/state"
	"taskboard/internal/wire"
)

// errUnchanged aborts a forward transition that turned out to change nothing; the gesture then
// succeeds without a backend call.
var errUnchanged = errors.New("unchanged")

// Optimistic describes one gesture: an optional local change applied before the backend call,
// its inverse, and how to fold the backend's answer into local state.
//
// Creates and deletes leave Forward nil so local state only advances once the backend agreed.
type Optimistic struct {
	Op wire.Op
	// Busy lists the containers whose contents the gesture changes. No other gesture may touch
	// them until this one has committed or rolled back.
	Busy    []string
	Forward state.Transition
	Inverse state.Transition
	Merge   func(wire.Result) state.Transition
}

func (c *Coordinator) run(ctx context.Context, o Optimistic) (wire.Result, error) {
	release, err := c.acquire(o.Busy...)
	if err != nil {
		return wire.Result{}, err
	}
	defer release()

	log := c.log.With("op", string(o.Op.Kind()), "target", o.Op.Target())
	pre := c.store.State()

	if o.Forward != nil {
		if err := c.store.Apply(o.Forward); err != nil {
			if errors.Is(err, errUnchanged) {
				return wire.Result{}, nil
			}
			return wire.Result{}, err
		}
	}

	res, err := c.backend.Do(ctx, pre, o.Op)
	if err != nil {
		remoteErr := &RemoteError{Op: o.Op.Kind(), Err: err}
		if o.Inverse != nil {
			if rbErr := c.store.Apply(o.Inverse); rbErr != nil {
				log.Error("rollback failed; reloading", "err", err, "rollback_err", rbErr)
				reloadErr := c.Load(ctx)
				if reloadErr != nil {
					log.Error("reload after failed rollback", "err", reloadErr)
				}
				return wire.Result{}, &RollbackError{Remote: remoteErr, Rollback: rbErr, Reloaded: reloadErr == nil}
			}
		}
		log.Warn("backend rejected operation", "err", err, "rolled_back", o.Inverse != nil)
		return wire.Result{}, remoteErr
	}

	if o.Merge != nil {
		if err := c.store.Apply(o.Merge(res)); err != nil {
			log.Error("merge backend result", "err", err)
			return res, err
		}
	}
	log.Debug("operation committed")
	return res, nil
}

func (c *Coordinator) acquire(ids ...string) (func(), error) {
	ids = distinct(ids)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if c.busy[id] {
			return nil, fmt.Errorf("%w: %s", ErrBusy, id)
		}
	}
	for _, id := range ids {
		c.busy[id] = true
	}
	return func() {
		c.mu.Lock()
		for _, id := range ids {
			delete(c.busy, id)
		}
		c.mu.Unlock()
	}, nil
}

// Busy reports whether a gesture changing container id is in flight.
func (c *Coordinator) Busy(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[id]
}

func distinct(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
