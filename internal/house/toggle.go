package house

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xndadelin/Grosharing/internal/model"
)

// ErrNoTransition is returned when an item is toggled to the state it is
// already in.
var ErrNoTransition = errors.New("item already in requested state")

// Status is the completion state of a grocery item.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
)

func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "pending"
}

// StatusOf returns the item's completion state.
func StatusOf(item model.GroceryItem) Status {
	if item.Completed {
		return StatusCompleted
	}
	return StatusPending
}

// Transition returns item moved to the requested completion state.
// Completing requires an actor, who becomes completed_by. Un-completing
// clears completed_by.
func Transition(item model.GroceryItem, completed bool, actor string) (model.GroceryItem, error) {
	if item.Completed == completed {
		return item, ErrNoTransition
	}

	next := item
	if completed {
		actor = strings.TrimSpace(actor)
		if actor == "" {
			return item, fmt.Errorf("%w: completing an item requires an actor", ErrValidation)
		}
		next.Completed = true
		next.CompletedBy = &actor
		return next, nil
	}

	next.Completed = false
	next.CompletedBy = nil
	return next, nil
}

// Attribution names the user whose spend a transition adjusts. Completion
// credits the new completed_by; un-completion debits whoever completed the
// item, falling back to the actor when that is unknown. Debiting the previous
// completer rather than the actor keeps the per-user totals summing to the
// house total when someone else un-completes an item.
func Attribution(prev, next model.GroceryItem, actor string) string {
	if next.CompletedBy != nil {
		return *next.CompletedBy
	}
	if prev.CompletedBy != nil {
		return *prev.CompletedBy
	}
	return actor
}
