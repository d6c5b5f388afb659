package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/spend"
	"github.com/xndadelin/Grosharing/internal/store"
)

// Notifier delivers a notification to one device token.
type Notifier interface {
	Notify(ctx context.Context, token string, n model.Notification) error
}

// Scheduler periodically checks each house's completed spend against its
// budget and alerts the house once per budget setting when it is exceeded.
type Scheduler struct {
	mu        sync.RWMutex
	notifier  Notifier
	push      *store.PushStore
	budgets   *store.BudgetStore
	items     *store.GroceryStore
	neighbors *store.NeighborStore
	logger    *slog.Logger
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a budget alert scheduler.
func NewScheduler(notifier Notifier, pushStore *store.PushStore, budgetStore *store.BudgetStore, itemStore *store.GroceryStore, neighborStore *store.NeighborStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		notifier:  notifier,
		push:      pushStore,
		budgets:   budgetStore,
		items:     itemStore,
		neighbors: neighborStore,
		logger:    logger,
		interval:  60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	budgets, err := s.budgets.List()
	if err != nil {
		s.logger.Error("list budgets", "error", err)
		return
	}

	for _, b := range budgets {
		s.checkBudget(ctx, b)
	}

	if err := s.push.CleanupSent(time.Now().AddDate(0, -3, 0)); err != nil {
		s.logger.Warn("cleanup sent notifications", "error", err)
	}
}

func (s *Scheduler) checkBudget(ctx context.Context, b model.HouseBudget) {
	if !b.Budget.IsPositive() {
		return
	}

	items, err := s.items.ListItemsByHouse(b.HouseName)
	if err != nil {
		s.logger.Error("list items for budget check", "house", b.HouseName, "error", err)
		return
	}
	usage := spend.BudgetUsage(b.Budget, spend.Total(items))
	if !usage.OverBudget {
		return
	}

	refID := b.UpdatedAt.UTC().Format(time.RFC3339)
	sent, err := s.push.WasSent(b.HouseName, model.NotifTypeBudgetExceeded, refID)
	if err != nil || sent {
		return
	}

	neighbors, err := s.neighbors.ListByHouse(b.HouseName)
	if err != nil {
		s.logger.Error("list neighbors for budget alert", "house", b.HouseName, "error", err)
		return
	}

	n := model.Notification{
		Title: "Over budget",
		Body:  fmt.Sprintf("%s has spent $%s of its $%s budget", b.HouseName, usage.Spent.StringFixed(2), b.Budget.StringFixed(2)),
		Data: map[string]string{
			"type":  model.NotifTypeBudgetExceeded,
			"house": b.HouseName,
		},
	}
	Broadcast(ctx, s.notifier, neighbors, func(model.Neighbor) model.Notification { return n }, s.neighbors, s.logger)

	if err := s.push.RecordSent(b.HouseName, model.NotifTypeBudgetExceeded, refID); err != nil {
		s.logger.Error("record budget alert", "house", b.HouseName, "error", err)
	}
}

// TokenClearer removes a push token that the push service reported expired.
type TokenClearer interface {
	ClearPushToken(token string) error
}

// Broadcast sends a notification built by compose to every neighbor holding a
// push token. Failures are logged per recipient and never stop the loop.
// Expired tokens are cleared when clearer is non-nil.
func Broadcast(ctx context.Context, notifier Notifier, neighbors []model.Neighbor, compose func(model.Neighbor) model.Notification, clearer TokenClearer, logger *slog.Logger) int {
	sent := 0
	for _, nb := range neighbors {
		if nb.PushToken == nil || *nb.PushToken == "" {
			continue
		}
		err := notifier.Notify(ctx, *nb.PushToken, compose(nb))
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrExpired) && clearer != nil:
			if cerr := clearer.ClearPushToken(*nb.PushToken); cerr != nil {
				logger.Warn("clear expired push token", "neighbor", nb.SlackID, "error", cerr)
			}
		default:
			logger.Warn("send notification", "neighbor", nb.SlackID, "house", nb.House, "error", err)
		}
	}
	return sent
}
