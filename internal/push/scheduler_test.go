package push

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/database"
	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/store"
)

func TestSchedulerBudgetAlert(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	items := store.NewGroceryStore(db)
	neighbors := store.NewNeighborStore(db)
	budgets := store.NewBudgetStore(db)
	notifier := &fakeNotifier{}
	s := NewScheduler(notifier, store.NewPushStore(db), budgets, items, neighbors, discardLogger())

	if _, _, err := neighbors.Join("Casa", model.User{ID: "U1", FullName: "Alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := neighbors.SetPushToken("Casa", "U1", "ExponentPushToken[a]"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if _, err := budgets.Upsert("Casa", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("upsert budget: %v", err)
	}

	it, err := items.CreateItem(model.NewGroceryItem{
		House:    "Casa",
		ItemName: "Cheese",
		Price:    decimal.NewNullDecimal(decimal.NewFromInt(12)),
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	// Pending items do not count toward spend.
	s.tick(context.Background())
	if len(notifier.sent) != 0 {
		t.Fatalf("expected no alert while item pending, got %v", notifier.sent)
	}

	if _, err := items.SetCompletion(it.ID, model.CompletionUpdate{Completed: true, CompletedBy: strPtr("Alice")}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	s.tick(context.Background())
	n, ok := notifier.sent["ExponentPushToken[a]"]
	if !ok {
		t.Fatal("expected budget alert")
	}
	if n.Data["type"] != model.NotifTypeBudgetExceeded {
		t.Errorf("type = %q", n.Data["type"])
	}

	// A second tick must not repeat the alert for the same budget.
	delete(notifier.sent, "ExponentPushToken[a]")
	s.tick(context.Background())
	if len(notifier.sent) != 0 {
		t.Errorf("alert repeated: %v", notifier.sent)
	}
}
