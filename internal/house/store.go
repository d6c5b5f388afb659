// Package house keeps the local view of one house: its grocery list, roster
// and budget, and the spend aggregates derived from them.
package house

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/push"
	"github.com/xndadelin/Grosharing/internal/spend"
)

// DefaultBudget is used until a house sets its own budget.
var DefaultBudget = decimal.NewFromInt(150)

// MaxBudget is the largest budget ParseBudget accepts.
var MaxBudget = decimal.New(1, 12)

// State is a point-in-time copy of a house's local data.
type State struct {
	House     string
	User      *model.User
	Items     []model.GroceryItem
	Neighbors []model.Neighbor
	Budget    decimal.Decimal
	Spend     spend.Summary
}

// Usage returns the budget usage for the state.
func (st State) Usage() spend.Usage {
	return spend.BudgetUsage(st.Budget, st.Spend.Total)
}

// Image is an optional photo attached to a new item.
type Image struct {
	Data        []byte
	ContentType string
}

// NewItem is the user input for AddItem.
type NewItem struct {
	Name        string
	Quantity    int
	Description string
	Price       string
	Image       *Image
}

// Store holds the local state of one house and reconciles it with a Gateway.
type Store struct {
	gw       Gateway
	notifier Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// NewStore creates a store. notifier may be nil to disable push fan-out.
func NewStore(gw Gateway, notifier Notifier, logger *slog.Logger) *Store {
	return &Store{
		gw:       gw,
		notifier: notifier,
		logger:   logger,
		state:    State{Budget: DefaultBudget},
	}
}

// LoadAll fetches the current user, items, roster and budget concurrently.
// A failed fetch is logged and leaves its part empty (budget: DefaultBudget)
// without affecting the others. Aggregates are recomputed from the items.
func (s *Store) LoadAll(ctx context.Context, house string) error {
	var (
		g         errgroup.Group
		user      *model.User
		items     []model.GroceryItem
		neighbors []model.Neighbor
		budget    = DefaultBudget
	)

	g.Go(func() error {
		u, err := s.gw.CurrentUser(ctx)
		if err != nil {
			s.logger.Warn("load current user", "house", house, "error", err)
			return nil
		}
		user = u
		return nil
	})
	g.Go(func() error {
		list, err := s.gw.ListItems(ctx, house)
		if err != nil {
			s.logger.Warn("load items", "house", house, "error", err)
			return nil
		}
		items = list
		return nil
	})
	g.Go(func() error {
		list, err := s.gw.ListNeighbors(ctx, house)
		if err != nil {
			s.logger.Warn("load neighbors", "house", house, "error", err)
			return nil
		}
		neighbors = list
		return nil
	})
	g.Go(func() error {
		b, err := s.gw.GetBudget(ctx, house)
		if err != nil {
			s.logger.Warn("load budget", "house", house, "error", err)
			return nil
		}
		if b != nil {
			budget = b.Budget
		}
		return nil
	})
	g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load house %s: %w", house, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{
		House:     house,
		User:      user,
		Items:     items,
		Neighbors: neighbors,
		Budget:    budget,
		Spend:     spend.Compute(items),
	}
	return nil
}

// Snapshot returns a copy of the local state that is safe to read while the
// store keeps changing.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Items = append([]model.GroceryItem(nil), s.state.Items...)
	st.Neighbors = append([]model.Neighbor(nil), s.state.Neighbors...)
	st.Spend = s.state.Spend.Clone()
	if s.state.User != nil {
		u := *s.state.User
		st.User = &u
	}
	return st
}

// AddItem validates the input, uploads the image if present, inserts the
// item, re-fetches the authoritative list and notifies the house, in that
// order.
func (s *Store) AddItem(ctx context.Context, in NewItem) (*model.GroceryItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	price := decimal.Zero
	if p := strings.TrimSpace(in.Price); p != "" {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid price %q", ErrValidation, in.Price)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		price = d
	}
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	house := s.state.House
	user := s.state.User
	s.mu.Unlock()
	if user == nil {
		return nil, ErrNotSignedIn
	}

	var imageURL *string
	if in.Image != nil && len(in.Image.Data) > 0 {
		url, err := s.gw.UploadImage(ctx, in.Image.Data, in.Image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		imageURL = &url
	}

	created, err := s.gw.CreateItem(ctx, model.NewGroceryItem{
		House:       house,
		ItemName:    name,
		Quantity:    quantity,
		Description: strings.TrimSpace(in.Description),
		Price:       decimal.NewNullDecimal(price),
		ImageURL:    imageURL,
		AddedBy:     user.FullName,
		SlackID:     user.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	if err := s.refreshItems(ctx, house); err != nil {
		s.logger.Warn("refresh items after add", "house", house, "error", err)
		s.mu.Lock()
		s.state.Items = append(s.state.Items, *created)
		s.mu.Unlock()
	}

	s.fanOut(ctx, house, *user, func(self bool) model.Notification {
		return push.ItemAdded(user.FullName, name, self)
	})

	return created, nil
}

// SetCompletion flips an item's completed state. The local item and the
// aggregates change immediately. The remote update is conditional on the
// item's previous state: if it fails the local change is reverted, and if
// another writer got there first the list is re-fetched.
func (s *Store) SetCompletion(ctx context.Context, itemID int64, completed bool, byUser string) error {
	s.mu.Lock()
	idx := s.indexOf(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	prev := s.state.Items[idx]
	next, err := Transition(prev, completed, byUser)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	who := Attribution(prev, next, byUser)
	s.state.Items[idx] = next
	s.state.Spend = s.state.Spend.Apply(prev.Cost(), who, completed)
	house := s.state.House
	user := s.state.User
	s.mu.Unlock()

	remote, err := s.gw.SetCompletion(ctx, itemID, model.CompletionUpdate{
		Completed:         next.Completed,
		CompletedBy:       next.CompletedBy,
		ExpectedCompleted: prev.Completed,
	})
	if errors.Is(err, ErrConflict) {
		if rerr := s.refreshItems(ctx, house); rerr != nil {
			s.logger.Warn("refresh items after conflict", "house", house, "error", rerr)
			s.revert(prev, next, who)
		}
		return fmt.Errorf("update status: %w", err)
	}
	if err != nil {
		s.revert(prev, next, who)
		return fmt.Errorf("update status: %w", err)
	}

	if remote != nil {
		s.mu.Lock()
		if i := s.indexOf(itemID); i >= 0 && s.state.Items[i].Completed == remote.Completed {
			s.state.Items[i] = *remote
		}
		s.mu.Unlock()
	}

	if completed && user != nil {
		s.fanOut(ctx, house, *user, func(self bool) model.Notification {
			return push.ItemCompleted(who, prev.ItemName, self)
		})
	}
	return nil
}

// revert undoes an optimistic completion change, provided nothing else has
// replaced the item in the meantime.
func (s *Store) revert(prev, next model.GroceryItem, who string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(prev.ID)
	if i < 0 || s.state.Items[i].Completed != next.Completed {
		return
	}
	s.state.Items[i] = prev
	s.state.Spend = s.state.Spend.Apply(prev.Cost(), who, prev.Completed)
}

// SetBudget parses amount and stores it as the house budget. The amount must
// be a finite number greater than zero.
func (s *Store) SetBudget(ctx context.Context, amount string) (decimal.Decimal, error) {
	budget, err := ParseBudget(amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	house := s.state.House
	s.mu.Unlock()

	b, err := s.gw.UpsertBudget(ctx, house, budget)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update budget: %w", err)
	}
	if b != nil {
		budget = b.Budget
	}

	s.mu.Lock()
	s.state.Budget = budget
	s.mu.Unlock()
	return budget, nil
}

// ParseBudget validates a user-entered budget amount.
func ParseBudget(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: budget %q is not a number", ErrValidation, amount)
	}
	if d.Abs().GreaterThan(MaxBudget) {
		return decimal.Zero, fmt.Errorf("%w: budget %q is too large", ErrValidation, amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: budget must be greater than zero", ErrValidation)
	}
	return d, nil
}

// RegisterPushToken validates a device token and stores it on the current
// user's membership. Failures are logged and swallowed.
func (s *Store) RegisterPushToken(ctx context.Context, token string) bool {
	s.mu.Lock()
	house := s.state.House
	s.mu.Unlock()

	if !push.ValidToken(token) {
		s.logger.Warn("invalid push token format", "house", house)
		return false
	}
	if err := s.gw.SetPushToken(ctx, house, token); err != nil {
		s.logger.Warn("save push token", "house", house, "error", err)
		return false
	}
	return true
}

// Refresh re-fetches the item list and recomputes the aggregates.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	house := s.state.House
	s.mu.Unlock()
	return s.refreshItems(ctx, house)
}

func (s *Store) refreshItems(ctx context.Context, house string) error {
	items, err := s.gw.ListItems(ctx, house)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Items = items
	s.state.Spend = spend.Compute(items)
	return nil
}

// fanOut notifies every neighbor of the house holding a push token. The
// roster is re-fetched first and the cached one is used if that fails.
func (s *Store) fanOut(ctx context.Context, house string, actor model.User, compose func(self bool) model.Notification) {
	if s.notifier == nil {
		return
	}

	neighbors, err := s.gw.ListNeighbors(ctx, house)
	if err != nil {
		s.logger.Warn("refresh neighbors for notifications", "house", house, "error", err)
		s.mu.Lock()
		neighbors = append([]model.Neighbor(nil), s.state.Neighbors...)
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.state.Neighbors = neighbors
		s.mu.Unlock()
	}

	sent := push.Broadcast(ctx, s.notifier, neighbors, func(nb model.Neighbor) model.Notification {
		return compose(nb.SlackID == actor.ID)
	}, nil, s.logger)
	s.logger.Debug("notifications sent", "house", house, "count", sent)
}

func (s *Store) indexOf(id int64) int {
	for i := range s.state.Items {
		if s.state.Items[i].ID == id {
			return i
		}
	}
	return -1
}
