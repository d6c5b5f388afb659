// Package chat keeps a house's chat history in sync with the realtime insert
// feed.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/xndadelin/Grosharing/internal/model"
)

var (
	// ErrEmptyMessage is returned by Send for blank content.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotSubscribed is returned by Send before Subscribe.
	ErrNotSubscribed = errors.New("not subscribed to a house")
)

// Backend is the remote side of a house chat: stored history, inserts, and
// an insert feed. Subscribe delivers messages inserted after it returns until
// ctx is cancelled, then closes the channel.
type Backend interface {
	ListMessages(ctx context.Context, houseID int64) ([]model.ChatMessage, error)
	SendMessage(ctx context.Context, houseID int64, content string) (*model.ChatMessage, error)
	Subscribe(ctx context.Context, houseID int64) (<-chan model.ChatMessage, error)
}

// Synchronizer merges a house's chat history with its live insert feed.
// Each message is delivered exactly once, history first.
type Synchronizer struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	houseID  int64
	messages []model.ChatMessage
	seen     map[int64]struct{}
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSynchronizer creates a synchronizer that is not yet subscribed.
func NewSynchronizer(backend Backend, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		backend: backend,
		logger:  logger,
	}
}

// Subscribe opens the insert feed for houseID, then loads the history. The
// feed is opened first so nothing inserted during the history fetch is
// missed; duplicates are dropped by id. onInsert is called from a single
// goroutine, for the merged history in order and then for live messages in
// arrival order. An existing subscription is closed first.
func (s *Synchronizer) Subscribe(ctx context.Context, houseID int64, onInsert func(model.ChatMessage)) error {
	s.Unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	events, err := s.backend.Subscribe(ctx, houseID)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to house %d: %w", houseID, err)
	}

	history, err := s.backend.ListMessages(ctx, houseID)
	if err != nil {
		s.logger.Warn("fetch chat history", "house_id", houseID, "error", err)
		history = nil
	}

	backlog := s.reset(houseID, history)

	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, houseID, events, backlog, onInsert, done)
	return nil
}

// reset replaces local state with the sorted, de-duplicated history and
// returns it.
func (s *Synchronizer) reset(houseID int64, history []model.ChatMessage) []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.houseID = houseID
	s.seen = make(map[int64]struct{}, len(history))
	s.messages = make([]model.ChatMessage, 0, len(history))
	for _, m := range history {
		if _, dup := s.seen[m.ID]; dup {
			continue
		}
		s.seen[m.ID] = struct{}{}
		s.messages = append(s.messages, m)
	}
	sortMessages(s.messages)
	return append([]model.ChatMessage(nil), s.messages...)
}

func (s *Synchronizer) run(ctx context.Context, houseID int64, events <-chan model.ChatMessage, backlog []model.ChatMessage, onInsert func(model.ChatMessage), done chan struct{}) {
	defer close(done)

	for _, m := range backlog {
		if onInsert != nil {
			onInsert(m)
		}
	}

	for {
		select {
		case m, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					s.logger.Warn("chat feed closed", "house_id", houseID)
				}
				return
			}
			if !s.accept(m) {
				continue
			}
			if onInsert != nil {
				onInsert(m)
			}
		case <-ctx.Done():
			return
		}
	}
}

// accept appends a live message unless it was already seen.
func (s *Synchronizer) accept(m model.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[m.ID]; dup {
		return false
	}
	s.seen[m.ID] = struct{}{}
	s.messages = append(s.messages, m)
	return true
}

// Unsubscribe closes the feed and waits for delivery to stop. It is safe to
// call when not subscribed.
func (s *Synchronizer) Unsubscribe() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Messages returns a copy of the messages received so far: history in
// created_at order followed by live messages in arrival order.
func (s *Synchronizer) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.messages...)
}

// Send posts a message to the subscribed house. The stored message comes
// back through the feed.
func (s *Synchronizer) Send(ctx context.Context, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	houseID := s.houseID
	s.mu.Unlock()
	if houseID == 0 {
		return nil, ErrNotSubscribed
	}

	msg, err := s.backend.SendMessage(ctx, houseID, content)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

func sortMessages(msgs []model.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
