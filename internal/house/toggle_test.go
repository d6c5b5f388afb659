package house

import (
	"errors"
	"testing"

	"github.com/xndadelin/Grosharing/internal/model"
)

func TestTransition(t *testing.T) {
	pending := model.GroceryItem{ID: 1, ItemName: "Milk"}

	done, err := Transition(pending, true, "Alice")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if StatusOf(done) != StatusCompleted {
		t.Errorf("status = %s, want completed", StatusOf(done))
	}
	if done.CompletedBy == nil || *done.CompletedBy != "Alice" {
		t.Errorf("completed_by = %v, want Alice", done.CompletedBy)
	}
	if pending.Completed {
		t.Error("input item mutated")
	}

	back, err := Transition(done, false, "Bob")
	if err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if StatusOf(back) != StatusPending || back.CompletedBy != nil {
		t.Errorf("item = %+v, want pending with no completer", back)
	}
}

func TestTransitionErrors(t *testing.T) {
	pending := model.GroceryItem{ID: 1}
	if _, err := Transition(pending, false, "Alice"); !errors.Is(err, ErrNoTransition) {
		t.Errorf("err = %v, want ErrNoTransition", err)
	}
	if _, err := Transition(pending, true, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestAttribution(t *testing.T) {
	bob := "Bob"
	prev := model.GroceryItem{Completed: true, CompletedBy: &bob}
	next := model.GroceryItem{}

	if got := Attribution(prev, next, "Alice"); got != "Bob" {
		t.Errorf("uncomplete attribution = %q, want previous completer Bob", got)
	}
	if got := Attribution(model.GroceryItem{Completed: true}, next, "Alice"); got != "Alice" {
		t.Errorf("fallback attribution = %q, want actor", got)
	}
	alice := "Alice"
	if got := Attribution(next, model.GroceryItem{Completed: true, CompletedBy: &alice}, "Alice"); got != "Alice" {
		t.Errorf("complete attribution = %q, want Alice", got)
	}
}

func TestStatusString(t *testing.T) {
	if StatusPending.String() != "pending" || StatusCompleted.String() != "completed" {
		t.Error("unexpected status names")
	}
}
