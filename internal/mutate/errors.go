package mutate

import (
	"errors"
	"fmt"
)

var ErrEmptyName = errors.New("name must not be empty")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s (local view is stale; refresh)", e.Kind, e.ID)
}

// ValidationError is returned before any state change or backend call.
type ValidationError struct {
	Kind  string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %s: %v", e.Kind, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StaleIndexError means a move described a source position that does not match local state.
type StaleIndexError struct {
	ContainerID string
	ID          string
	Want        int
	Got         int
}

func (e *StaleIndexError) Error() string {
	return fmt.Sprintf("%s is at index %d in %s, not %d (local view is stale; refresh)", e.ID, e.Got, e.ContainerID, e.Want)
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

var (
	ErrEmptyID     = errors.New("id must not be empty")
	ErrDuplicateID = errors.New("id already exists")
)
