package cli

import (
	"errors"
	"fmt"

	"taskboard/internal/coordinator"
	"taskboard/internal/order"
	"taskboard/internal/remote"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// describe adds a hint for errors the user can act on.
func describe(err error) string {
	var (
		st *remote.StatusError
		oc *order.OrderConsistencyError
		rb *coordinator.RollbackError
	)
	switch {
	case errors.As(err, &rb):
		return err.Error()
	case errors.As(err, &st) && st.Status == 401:
		return err.Error() + " (run `taskboard login` again or use --guest)"
	case errors.As(err, &st) && st.NotFound():
		return err.Error() + " (the board changed on the server; rerun the command)"
	case errors.Is(err, coordinator.ErrBusy):
		return err.Error() + " (another change there is still running; retry when it finishes)"
	case errors.As(err, &oc):
		return err.Error() + " (local data is inconsistent; reload the board)"
	}
	return err.Error()
}
