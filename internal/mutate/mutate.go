// Package mutate holds the pure state transitions of the board.
//
// Every operation takes the current state.State and returns the next one plus a Result; the
// input is never modified. Callers (the coordinator) decide when to commit a transition to the
// shared state.Store and which inverse to run if the backend rejects it.
package mutate

import (
	"strings"
)

// Result describes what a transition changed.
type Result struct {
	Changed bool

	// Note is the activity text implied by the transition, empty when none.
	Note   string
	TaskID string

	// SourceIndex/DestIndex are the positions actually used by a move, after clamping.
	SourceIndex int
	DestIndex   int
}

// ValidateName trims name and rejects empty values.
func ValidateName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Kind: kind, Field: "name", Err: ErrEmptyName}
	}
	return name, nil
}
