package order

import (
	"fmt"
	"strings"
)

// Keyed is implemented by every entity that can appear in an order list.
type Keyed interface {
	EntityID() string
}

type Problem string

const (
	ProblemUnknownID   Problem = "unknown id"
	ProblemDuplicateID Problem = "duplicate id"
	ProblemMissingID   Problem = "id missing from order"
)

// OrderConsistencyError reports an order list that is not a permutation of its backing set.
// It always means the local view is stale or corrupted; callers should refetch.
type OrderConsistencyError struct {
	Problem Problem
	ID      string
}

func (e *OrderConsistencyError) Error() string {
	return fmt.Sprintf("order list inconsistent: %s %q", e.Problem, e.ID)
}

// Materialize maps each id in orderList, in order, to its item.
//
// The order list must be a permutation of the item ids: an unknown id, a repeated id, or an item
// that the order list never mentions all fail with *OrderConsistencyError. The returned slice is
// freshly allocated.
func Materialize[T Keyed](orderList []string, items []T) ([]T, error) {
	byID := make(map[string]int, len(items))
	for i := range items {
		id := items[i].EntityID()
		if _, dup := byID[id]; dup {
			return nil, &OrderConsistencyError{Problem: ProblemDuplicateID, ID: id}
		}
		byID[id] = i
	}

	out := make([]T, 0, len(orderList))
	seen := make(map[string]bool, len(orderList))
	for _, id := range orderList {
		idx, ok := byID[id]
		if !ok {
			return nil, &OrderConsistencyError{Problem: ProblemUnknownID, ID: id}
		}
		if seen[id] {
			return nil, &OrderConsistencyError{Problem: ProblemDuplicateID, ID: id}
		}
		seen[id] = true
		out = append(out, items[idx])
	}

	if len(out) != len(items) {
		for i := range items {
			if id := items[i].EntityID(); !seen[id] {
				return nil, &OrderConsistencyError{Problem: ProblemMissingID, ID: id}
			}
		}
	}
	return out, nil
}

// Splice removes removeID (if present) and then inserts insertID at insertIndex, clamped to
// [0, len]. Empty ids are treated as absent. The input slice is never modified.
//
// Same-container reorders pass the same id for both; cross-container moves call Splice once on
// the source list (remove only) and once on the destination list (insert only).
func Splice(orderList []string, removeID, insertID string, insertIndex int) []string {
	removeID = strings.TrimSpace(removeID)
	insertID = strings.TrimSpace(insertID)

	out := make([]string, 0, len(orderList)+1)
	for _, id := range orderList {
		if removeID != "" && id == removeID {
			continue
		}
		out = append(out, id)
	}
	if insertID == "" {
		return out
	}

	if insertIndex < 0 {
		insertIndex = 0
	}
	if insertIndex > len(out) {
		insertIndex = len(out)
	}
	out = append(out, "")
	copy(out[insertIndex+1:], out[insertIndex:])
	out[insertIndex] = insertID
	return out
}

// IDs extracts ids in sequence.
func IDs[T Keyed](items []T) []string {
	out := make([]string, 0, len(items))
	for i := range items {
		out = append(out, items[i].EntityID())
	}
	return out
}

func IndexOf(orderList []string, id string) int {
	for i := range orderList {
		if orderList[i] == id {
			return i
		}
	}
	return -1
}

// Clamp bounds an insertion index to [0, n].
func Clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}
