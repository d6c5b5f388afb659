package house

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/xndadelin/Grosharing/internal/model"
)

var (
	// ErrValidation wraps user input that is rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrNotSignedIn is returned when an operation needs the current user and
	// none could be loaded.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrNotFound is returned for item ids missing from the local list.
	ErrNotFound = errors.New("item not found")
	// ErrConflict is returned by a Gateway when a conditional completion
	// update lost a race with another writer.
	ErrConflict = errors.New("item changed concurrently")
)

// Gateway is the remote data store a house Store reads from and writes to.
type Gateway interface {
	CurrentUser(ctx context.Context) (*model.User, error)
	ListItems(ctx context.Context, house string) ([]model.GroceryItem, error)
	ListNeighbors(ctx context.Context, house string) ([]model.Neighbor, error)
	GetBudget(ctx context.Context, house string) (*model.HouseBudget, error)
	CreateItem(ctx context.Context, item model.NewGroceryItem) (*model.GroceryItem, error)
	SetCompletion(ctx context.Context, id int64, upd model.CompletionUpdate) (*model.GroceryItem, error)
	UpsertBudget(ctx context.Context, house string, amount decimal.Decimal) (*model.HouseBudget, error)
	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
	SetPushToken(ctx context.Context, house, token string) error
}

// Notifier delivers a push notification to one device token.
type Notifier interface {
	Notify(ctx context.Context, token string, n model.Notification) error
}
