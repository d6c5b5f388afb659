package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/xndadelin/Grosharing/internal/model"
)

const (
	// EventInsert carries a newly stored chat message. Messages are
	// append-only, so no other row event exists.
	EventInsert = "INSERT"
	// EventSubscribed is the first frame on a connection. Inserts stored
	// after it is sent are guaranteed to reach the client.
	EventSubscribed = "SUBSCRIBED"
)

// Event is a realtime change notification for one row of a table.
type Event struct {
	Type   string            `json:"type"`
	Table  string            `json:"table"`
	Record model.ChatMessage `json:"record,omitzero"`
}

// NewInsertEvent wraps a newly stored chat message.
func NewInsertEvent(msg model.ChatMessage) Event {
	return Event{Type: EventInsert, Table: "messages", Record: msg}
}

// Hub maintains the active WebSocket clients, grouped by house, and fans
// insert events out to the clients of the matching house.
type Hub struct {
	mu     sync.RWMutex
	topics map[int64]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		topics: make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its house's topic.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.topics[c.houseID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.topics[c.houseID] = clients
	}
	clients[c] = struct{}{}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := h.topics[c.houseID]
	if _, ok := clients[c]; ok {
		delete(clients, c)
		close(c.send)
		if len(clients) == 0 {
			delete(h.topics, c.houseID)
		}
	}
}

// BroadcastInsert sends an insert event for msg to every client subscribed to
// msg's house.
func (h *Hub) BroadcastInsert(msg model.ChatMessage) {
	data, err := json.Marshal(NewInsertEvent(msg))
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[msg.HouseID] {
		select {
		case c.send <- data:
		default:
			// Buffer full: drop rather than block the broadcaster.
			h.logger.Warn("dropped event for slow client", "house_id", msg.HouseID, "message_id", msg.ID)
		}
	}
}

// ClientCount returns the number of clients subscribed to a house.
func (h *Hub) ClientCount(houseID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[houseID])
}

// Subscribe registers an in-process subscriber for a house. Inserted messages
// arrive on the returned channel until ctx is cancelled, after which the
// channel is closed.
func (h *Hub) Subscribe(ctx context.Context, houseID int64) (<-chan model.ChatMessage, error) {
	c := &Client{
		hub:     h,
		houseID: houseID,
		send:    make(chan []byte, subscriberBufferSize),
	}
	h.Register(c)

	out := make(chan model.ChatMessage)
	go func() {
		defer close(out)
		defer h.Unregister(c)
		for {
			select {
			case data, ok := <-c.send:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal(data, &ev); err != nil {
					h.logger.Error("decode event", "error", err)
					continue
				}
				select {
				case out <- ev.Record:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
