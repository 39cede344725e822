package state

import (
	"sync"

	"taskboard/internal/view"
)

// Transition computes the next state from the current one.
type Transition func(State) (State, error)

// Observer is called after every committed transition with the new snapshot and its version.
// Observers of different commits may run concurrently; version tells them apart, higher is newer.
type Observer func(st State, cur view.Current, version uint64)

// Store is the single shared container for the in-memory hierarchy.
//
// Writers go through Apply, which derives the view for the candidate state before swapping both
// in under the lock. Readers always see a state and a view that belong together.
type Store struct {
	mu        sync.RWMutex
	st        State
	cur       view.Current
	version   uint64
	observers []Observer
}

func NewStore() *Store {
	return &Store{cur: view.NoWorkspace()}
}

// Apply runs fn against the current state. If fn fails, or the resulting hierarchy cannot be
// materialized, nothing is committed and the error is returned.
func (s *Store) Apply(fn Transition) error {
	s.mu.Lock()
	next, err := fn(s.st)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	cur, err := view.DeriveCurrent(next.Workspaces)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.st = next
	s.cur = cur
	s.version++
	version := s.version
	obs := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range obs {
		o(next, cur, version)
	}
	return nil
}

// State returns the current normalized state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// Current returns the derived view of the selected workspace.
func (s *Store) Current() view.Current {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Snapshot returns state, view and version atomically.
func (s *Store) Snapshot() (State, view.Current, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st, s.cur, s.version
}

func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}
