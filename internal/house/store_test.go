package house

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/model"
)

func loadedStore(t *testing.T) (*Store, *fakeGateway, *fakeNotifier) {
	t.Helper()
	gw, notifier := newFixture()
	s := NewStore(gw, notifier, discardLogger())
	if err := s.LoadAll(context.Background(), "Casa"); err != nil {
		t.Fatalf("load all: %v", err)
	}
	return s, gw, notifier
}

func TestLoadAll(t *testing.T) {
	s, _, _ := loadedStore(t)
	st := s.Snapshot()

	if st.House != "Casa" {
		t.Errorf("house = %q, want Casa", st.House)
	}
	if len(st.Items) != 3 {
		t.Errorf("items = %d, want 3", len(st.Items))
	}
	if len(st.Neighbors) != 3 {
		t.Errorf("neighbors = %d, want 3", len(st.Neighbors))
	}
	if !st.Budget.Equal(DefaultBudget) {
		t.Errorf("budget = %s, want default %s", st.Budget, DefaultBudget)
	}
	if !st.Spend.Total.Equal(decimal.RequireFromString("3.50")) {
		t.Errorf("total = %s, want 3.50", st.Spend.Total)
	}
	if got := st.Spend.SpentBy("Bob"); !got.Equal(decimal.RequireFromString("3.50")) {
		t.Errorf("bob = %s, want 3.50", got)
	}
	if st.User == nil || st.User.FullName != "Alice" {
		t.Errorf("user = %+v, want Alice", st.User)
	}
}

func TestLoadAllPartialFailure(t *testing.T) {
	gw, notifier := newFixture()
	gw.itemsErr = errors.New("items down")
	gw.budget = &model.HouseBudget{HouseName: "Casa", Budget: decimal.NewFromInt(80)}
	s := NewStore(gw, notifier, discardLogger())

	if err := s.LoadAll(context.Background(), "Casa"); err != nil {
		t.Fatalf("load all: %v", err)
	}
	st := s.Snapshot()
	if len(st.Items) != 0 {
		t.Errorf("items = %d, want 0 after failed fetch", len(st.Items))
	}
	if len(st.Neighbors) != 3 {
		t.Errorf("neighbors = %d, want 3", len(st.Neighbors))
	}
	if !st.Budget.Equal(decimal.NewFromInt(80)) {
		t.Errorf("budget = %s, want 80", st.Budget)
	}
	if !st.Spend.Total.IsZero() {
		t.Errorf("total = %s, want 0", st.Spend.Total)
	}
}

func TestLoadAllBudgetFailureUsesDefault(t *testing.T) {
	gw, notifier := newFixture()
	gw.budgetErr = errors.New("budget down")
	gw.neighborsErr = errors.New("roster down")
	s := NewStore(gw, notifier, discardLogger())

	if err := s.LoadAll(context.Background(), "Casa"); err != nil {
		t.Fatalf("load all: %v", err)
	}
	st := s.Snapshot()
	if !st.Budget.Equal(DefaultBudget) {
		t.Errorf("budget = %s, want default", st.Budget)
	}
	if len(st.Neighbors) != 0 {
		t.Errorf("neighbors = %d, want 0", len(st.Neighbors))
	}
	if len(st.Items) != 3 {
		t.Errorf("items = %d, want 3", len(st.Items))
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s, _, _ := loadedStore(t)
	st := s.Snapshot()
	st.Items[0].ItemName = "changed"

	if s.Snapshot().Items[0].ItemName == "changed" {
		t.Error("snapshot shares item storage with the store")
	}
}

func TestAddItemRejectsEmptyName(t *testing.T) {
	s, gw, _ := loadedStore(t)
	before := len(gw.calls)

	for _, name := range []string{"", "   "} {
		_, err := s.AddItem(context.Background(), NewItem{Name: name})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("AddItem(%q) err = %v, want ErrValidation", name, err)
		}
	}
	if len(gw.calls) != before {
		t.Errorf("remote calls made for invalid input: %v", gw.calls[before:])
	}
}

func TestAddItemRejectsNegativePrice(t *testing.T) {
	s, gw, _ := loadedStore(t)

	_, err := s.AddItem(context.Background(), NewItem{Name: "Milk", Price: "-1"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if gw.callCount("CreateItem") != 0 {
		t.Error("CreateItem called for invalid price")
	}
}

func TestAddItem(t *testing.T) {
	s, gw, notifier := loadedStore(t)

	created, err := s.AddItem(context.Background(), NewItem{
		Name:     "  Oat milk ",
		Quantity: 0,
		Image:    &Image{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if created.ItemName != "Oat milk" {
		t.Errorf("name = %q, want trimmed", created.ItemName)
	}
	if created.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", created.Quantity)
	}
	if !created.Price.Valid || !created.Price.Decimal.IsZero() {
		t.Errorf("price = %v, want 0", created.Price)
	}
	if created.ImageURL == nil {
		t.Error("expected image url")
	}
	if created.AddedBy != "Alice" || created.SlackID != "U1" {
		t.Errorf("added by = %q/%q", created.AddedBy, created.SlackID)
	}

	// Steps run upload, insert, re-fetch, roster refresh in order.
	want := []string{"UploadImage", "CreateItem", "ListItems", "ListNeighbors"}
	got := gw.calls[len(gw.calls)-len(want):]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call order = %v, want %v", got, want)
		}
	}

	if n := len(s.Snapshot().Items); n != 4 {
		t.Errorf("items = %d, want 4 after re-fetch", n)
	}

	if body := notifier.bodyFor("ExponentPushToken[alice]"); body != "You added Oat milk to the shopping list" {
		t.Errorf("self body = %q", body)
	}
	if body := notifier.bodyFor("ExponentPushToken[bob]"); body != "Alice added Oat milk to the shopping list" {
		t.Errorf("other body = %q", body)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("sent = %d, want 2 (Carol has no token)", len(notifier.sent))
	}
}

func TestAddItemUploadFailureStopsInsert(t *testing.T) {
	s, gw, _ := loadedStore(t)
	gw.uploadErr = errors.New("bucket gone")

	_, err := s.AddItem(context.Background(), NewItem{Name: "Milk", Image: &Image{Data: []byte{1}, ContentType: "image/png"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if gw.callCount("CreateItem") != 0 {
		t.Error("CreateItem called after failed upload")
	}
}

func TestAddItemNotificationFailureDoesNotAbort(t *testing.T) {
	s, _, notifier := loadedStore(t)
	notifier.fail = map[string]error{"ExponentPushToken[alice]": errors.New("push down")}

	if _, err := s.AddItem(context.Background(), NewItem{Name: "Milk"}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if notifier.bodyFor("ExponentPushToken[bob]") == "" {
		t.Error("expected Bob to be notified despite Alice's failure")
	}
}

func TestAddItemRosterFallback(t *testing.T) {
	s, gw, notifier := loadedStore(t)
	gw.neighborsErr = errors.New("roster down")

	if _, err := s.AddItem(context.Background(), NewItem{Name: "Milk"}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("sent = %d, want 2 from cached roster", len(notifier.sent))
	}
}

func TestAddItemRequiresUser(t *testing.T) {
	gw, notifier := newFixture()
	gw.userErr = errors.New("no session")
	s := NewStore(gw, notifier, discardLogger())
	s.LoadAll(context.Background(), "Casa")

	_, err := s.AddItem(context.Background(), NewItem{Name: "Milk"})
	if !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("err = %v, want ErrNotSignedIn", err)
	}
}

func TestSetCompletionComplete(t *testing.T) {
	s, gw, notifier := loadedStore(t)

	if err := s.SetCompletion(context.Background(), 1, true, "Alice"); err != nil {
		t.Fatalf("set completion: %v", err)
	}

	st := s.Snapshot()
	if !st.Spend.Total.Equal(decimal.RequireFromString("7.00")) {
		t.Errorf("total = %s, want 7.00", st.Spend.Total)
	}
	if got := st.Spend.SpentBy("Alice"); !got.Equal(decimal.RequireFromString("3.50")) {
		t.Errorf("alice = %s, want 3.50", got)
	}
	if !st.Items[0].Completed || st.Items[0].CompletedBy == nil || *st.Items[0].CompletedBy != "Alice" {
		t.Errorf("item = %+v, want completed by Alice", st.Items[0])
	}
	if !gw.items[0].Completed {
		t.Error("remote item not updated")
	}
	if body := notifier.bodyFor("ExponentPushToken[alice]"); body != "You purchased Milk" {
		t.Errorf("self body = %q", body)
	}
	if body := notifier.bodyFor("ExponentPushToken[bob]"); body != "Alice purchased Milk" {
		t.Errorf("other body = %q", body)
	}
}

func TestSetCompletionUncomplete(t *testing.T) {
	s, _, notifier := loadedStore(t)

	if err := s.SetCompletion(context.Background(), 2, false, "Alice"); err != nil {
		t.Fatalf("set completion: %v", err)
	}

	st := s.Snapshot()
	if got := st.Spend.SpentBy("Bob"); !got.Equal(decimal.RequireFromString("1.50")) {
		t.Errorf("bob = %s, want 1.50", got)
	}
	if got := st.Spend.SpentBy("Alice"); !got.IsZero() {
		t.Errorf("alice = %s, want 0", got)
	}
	if st.Items[1].CompletedBy != nil {
		t.Error("completed_by not cleared")
	}
	if len(notifier.sent) != 0 {
		t.Errorf("un-completing sent %d notifications, want 0", len(notifier.sent))
	}
}

func TestSetCompletionNoTransition(t *testing.T) {
	s, gw, _ := loadedStore(t)

	err := s.SetCompletion(context.Background(), 2, true, "Alice")
	if !errors.Is(err, ErrNoTransition) {
		t.Errorf("err = %v, want ErrNoTransition", err)
	}
	if gw.callCount("SetCompletion") != 0 {
		t.Error("remote update issued for no-op toggle")
	}
}

func TestSetCompletionRequiresActor(t *testing.T) {
	s, gw, _ := loadedStore(t)

	err := s.SetCompletion(context.Background(), 1, true, " ")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if gw.callCount("SetCompletion") != 0 {
		t.Error("remote update issued without actor")
	}
}

func TestSetCompletionUnknownItem(t *testing.T) {
	s, _, _ := loadedStore(t)

	if err := s.SetCompletion(context.Background(), 99, true, "Alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetCompletionRollsBackOnFailure(t *testing.T) {
	s, gw, notifier := loadedStore(t)
	before := s.Snapshot()
	gw.completionErr = errors.New("network down")

	err := s.SetCompletion(context.Background(), 1, true, "Alice")
	if err == nil {
		t.Fatal("expected error")
	}

	after := s.Snapshot()
	if after.Items[0].Completed {
		t.Error("optimistic completion not reverted")
	}
	if !after.Spend.Total.Equal(before.Spend.Total) {
		t.Errorf("total = %s, want %s", after.Spend.Total, before.Spend.Total)
	}
	if !after.Spend.SpentBy("Alice").IsZero() {
		t.Error("alice spend not reverted")
	}
	if len(notifier.sent) != 0 {
		t.Error("notifications sent for failed completion")
	}
}

func TestSetCompletionOptimisticBeforeRemote(t *testing.T) {
	s, gw, _ := loadedStore(t)

	var seen bool
	gw.beforeCompletion = func() {
		st := s.Snapshot()
		seen = st.Items[0].Completed && st.Spend.SpentBy("Alice").Equal(decimal.RequireFromString("3.50"))
	}

	if err := s.SetCompletion(context.Background(), 1, true, "Alice"); err != nil {
		t.Fatalf("set completion: %v", err)
	}
	if !seen {
		t.Error("local state not updated before the remote call")
	}
}

func TestSetCompletionConflictRefetches(t *testing.T) {
	s, gw, notifier := loadedStore(t)

	// Bob completes Milk remotely after Alice loaded the list.
	gw.items[0].Completed = true
	gw.items[0].CompletedBy = strPtr("Bob")

	err := s.SetCompletion(context.Background(), 1, true, "Alice")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	st := s.Snapshot()
	if st.Items[0].CompletedBy == nil || *st.Items[0].CompletedBy != "Bob" {
		t.Errorf("item = %+v, want completed by Bob from re-fetch", st.Items[0])
	}
	if !st.Spend.SpentBy("Alice").IsZero() {
		t.Errorf("alice = %s, want 0", st.Spend.SpentBy("Alice"))
	}
	if got := st.Spend.SpentBy("Bob"); !got.Equal(decimal.RequireFromString("7.00")) {
		t.Errorf("bob = %s, want 7.00", got)
	}
	if len(notifier.sent) != 0 {
		t.Error("notifications sent for lost race")
	}
}

func TestSetCompletionRoundTrip(t *testing.T) {
	s, _, _ := loadedStore(t)
	before := s.Snapshot().Spend

	if err := s.SetCompletion(context.Background(), 1, true, "Alice"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.SetCompletion(context.Background(), 1, false, "Alice"); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}

	after := s.Snapshot().Spend
	if !after.Total.Equal(before.Total) {
		t.Errorf("total = %s, want %s", after.Total, before.Total)
	}
	if len(after.PerUser) != len(before.PerUser) {
		t.Errorf("per user = %v, want %v", after.PerUser, before.PerUser)
	}
}

func TestSetBudget(t *testing.T) {
	s, gw, _ := loadedStore(t)

	got, err := s.SetBudget(context.Background(), " 200.50 ")
	if err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("200.50")) {
		t.Errorf("budget = %s, want 200.50", got)
	}
	if !s.Snapshot().Budget.Equal(got) {
		t.Error("local budget not updated")
	}
	if gw.budget == nil || gw.budget.HouseName != "Casa" {
		t.Errorf("remote budget = %+v", gw.budget)
	}
}

func TestSetBudgetValidation(t *testing.T) {
	s, gw, _ := loadedStore(t)

	for _, amount := range []string{"-5", "abc", "0", "", "NaN", "Inf", "1e400", "1000000000001"} {
		if _, err := s.SetBudget(context.Background(), amount); !errors.Is(err, ErrValidation) {
			t.Errorf("SetBudget(%q) err = %v, want ErrValidation", amount, err)
		}
	}
	if gw.callCount("UpsertBudget") != 0 {
		t.Error("remote upsert issued for invalid budget")
	}
}

func TestParseBudgetTooLarge(t *testing.T) {
	_, err := ParseBudget("1e400")
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "too large") {
		t.Errorf("err = %v, want too large validation error", err)
	}

	got, err := ParseBudget("1e12")
	if err != nil {
		t.Fatalf("parse max budget: %v", err)
	}
	if !got.Equal(MaxBudget) {
		t.Errorf("budget = %s, want %s", got, MaxBudget)
	}
}

func TestSetBudgetRemoteFailureKeepsLocal(t *testing.T) {
	s, gw, _ := loadedStore(t)
	gw.upsertErr = errors.New("down")

	if _, err := s.SetBudget(context.Background(), "90"); err == nil {
		t.Fatal("expected error")
	}
	if !s.Snapshot().Budget.Equal(DefaultBudget) {
		t.Error("local budget changed after failed upsert")
	}
}

func TestRegisterPushToken(t *testing.T) {
	s, gw, _ := loadedStore(t)

	if s.RegisterPushToken(context.Background(), "not-a-token") {
		t.Error("accepted malformed token")
	}
	if gw.callCount("SetPushToken") != 0 {
		t.Error("malformed token sent to gateway")
	}

	if !s.RegisterPushToken(context.Background(), "ExponentPushToken[abc]") {
		t.Error("rejected valid token")
	}
	if gw.tokens["Casa"] != "ExponentPushToken[abc]" {
		t.Errorf("tokens = %v", gw.tokens)
	}
}

func TestUsage(t *testing.T) {
	s, _, _ := loadedStore(t)
	if _, err := s.SetBudget(context.Background(), "3.50"); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	u := s.Snapshot().Usage()
	if u.PercentUsed != 100 || u.OverBudget {
		t.Errorf("usage = %+v, want exactly 100%% and not over", u)
	}
}
