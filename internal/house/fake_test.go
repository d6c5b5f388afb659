package house

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// fakeGateway is an in-memory Gateway. Setting a *Err field makes the
// matching call fail.
type fakeGateway struct {
	mu sync.Mutex

	user      *model.User
	items     []model.GroceryItem
	neighbors []model.Neighbor
	budget    *model.HouseBudget
	nextID    int64
	tokens    map[string]string
	calls     []string

	userErr       error
	itemsErr      error
	neighborsErr  error
	budgetErr     error
	createErr     error
	completionErr error
	upsertErr     error
	uploadErr     error

	// beforeCompletion runs inside SetCompletion before the update applies.
	beforeCompletion func()
}

func (f *fakeGateway) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) CurrentUser(ctx context.Context) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CurrentUser")
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeGateway) ListItems(ctx context.Context, house string) ([]model.GroceryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListItems")
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	var out []model.GroceryItem
	for _, it := range f.items {
		if it.House == house {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeGateway) ListNeighbors(ctx context.Context, house string) ([]model.Neighbor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListNeighbors")
	if f.neighborsErr != nil {
		return nil, f.neighborsErr
	}
	return append([]model.Neighbor(nil), f.neighbors...), nil
}

func (f *fakeGateway) GetBudget(ctx context.Context, house string) (*model.HouseBudget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetBudget")
	if f.budgetErr != nil {
		return nil, f.budgetErr
	}
	return f.budget, nil
}

func (f *fakeGateway) CreateItem(ctx context.Context, in model.NewGroceryItem) (*model.GroceryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateItem")
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	it := model.GroceryItem{
		ID:          1000 + f.nextID,
		House:       in.House,
		ItemName:    in.ItemName,
		Quantity:    in.Quantity,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		AddedBy:     in.AddedBy,
		SlackID:     in.SlackID,
	}
	f.items = append(f.items, it)
	return &it, nil
}

func (f *fakeGateway) SetCompletion(ctx context.Context, id int64, upd model.CompletionUpdate) (*model.GroceryItem, error) {
	if f.beforeCompletion != nil {
		f.beforeCompletion()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetCompletion")
	if f.completionErr != nil {
		return nil, f.completionErr
	}
	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if f.items[i].Completed != upd.ExpectedCompleted {
			return nil, ErrConflict
		}
		f.items[i].Completed = upd.Completed
		f.items[i].CompletedBy = upd.CompletedBy
		it := f.items[i]
		return &it, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeGateway) UpsertBudget(ctx context.Context, house string, amount decimal.Decimal) (*model.HouseBudget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertBudget")
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.budget = &model.HouseBudget{HouseName: house, Budget: amount}
	return f.budget, nil
}

func (f *fakeGateway) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UploadImage")
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.example.com/grocery_images/x.jpg", nil
}

func (f *fakeGateway) SetPushToken(ctx context.Context, house, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetPushToken")
	if f.tokens == nil {
		f.tokens = make(map[string]string)
	}
	f.tokens[house] = token
	return nil
}

func (f *fakeGateway) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

type sentNotification struct {
	token string
	n     model.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	fail map[string]error
}

func (f *fakeNotifier) Notify(ctx context.Context, token string, n model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[token]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentNotification{token: token, n: n})
	return nil
}

func (f *fakeNotifier) bodyFor(token string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sent {
		if s.token == token {
			return s.n.Body
		}
	}
	return ""
}

func newFixture() (*fakeGateway, *fakeNotifier) {
	gw := &fakeGateway{
		user: &model.User{ID: "U1", FullName: "Alice"},
		items: []model.GroceryItem{
			{ID: 1, House: "Casa", ItemName: "Milk", Quantity: 1, Price: price("3.50")},
			{ID: 2, House: "Casa", ItemName: "Bread", Quantity: 1, Price: price("2.00"), Completed: true, CompletedBy: strPtr("Bob")},
			{ID: 3, House: "Casa", ItemName: "Eggs", Quantity: 12, Price: price("1.50"), Completed: true, CompletedBy: strPtr("Bob")},
			{ID: 4, House: "Atelier", ItemName: "Tea", Quantity: 1, Price: price("9.00"), Completed: true, CompletedBy: strPtr("Zed")},
		},
		neighbors: []model.Neighbor{
			{SlackID: "U1", House: "Casa", FullName: "Alice", PushToken: strPtr("ExponentPushToken[alice]")},
			{SlackID: "U2", House: "Casa", FullName: "Bob", PushToken: strPtr("ExponentPushToken[bob]")},
			{SlackID: "U3", House: "Casa", FullName: "Carol"},
		},
	}
	return gw, &fakeNotifier{}
}
