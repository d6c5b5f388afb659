package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xndadelin/Grosharing/internal/model"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, houseID int64) *Client {
	return &Client{
		hub:     hub,
		conn:    nil,
		houseID: houseID,
		send:    make(chan []byte, sendBufferSize),
	}
}

func chatMessage(id, houseID int64) model.ChatMessage {
	return model.ChatMessage{ID: id, HouseID: houseID, UserID: "U1", Content: "hi", CreatedAt: time.Now().UTC()}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	c3 := mockClient(hub, 2)

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount(1); got != 2 {
		t.Fatalf("expected 2 clients in house 1, got %d", got)
	}
	if got := hub.ClientCount(2); got != 1 {
		t.Fatalf("expected 1 client in house 2, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	hub.Unregister(c3)

	if got := hub.ClientCount(1) + hub.ClientCount(2); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastInsertScopedToHouse(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	other := mockClient(hub, 2)
	hub.Register(c1)
	hub.Register(c2)
	hub.Register(other)

	hub.BroadcastInsert(chatMessage(42, 1))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != EventInsert {
				t.Errorf("expected type %s, got %s", EventInsert, got.Type)
			}
			if got.Table != "messages" {
				t.Errorf("expected table messages, got %s", got.Table)
			}
			if got.Record.ID != 42 {
				t.Errorf("expected id 42, got %d", got.Record.ID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}

	select {
	case <-other.send:
		t.Error("client of another house received the event")
	default:
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
	hub.Unregister(other)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.BroadcastInsert(chatMessage(1, 7))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.BroadcastInsert(chatMessage(int64(i), 1))
	}

	// This should drop the message, not panic or block
	hub.BroadcastInsert(chatMessage(999, 1))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestSubscribe(t *testing.T) {
	hub := NewHub(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())

	events, err := hub.Subscribe(ctx, 3)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got := hub.ClientCount(3); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	hub.BroadcastInsert(chatMessage(1, 3))
	hub.BroadcastInsert(chatMessage(2, 4))
	hub.BroadcastInsert(chatMessage(3, 3))

	for _, want := range []int64{1, 3} {
		select {
		case msg := <-events:
			if msg.ID != want {
				t.Errorf("got message %d, want %d", msg.ID, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for message %d", want)
		}
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected channel closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	if got := hub.ClientCount(3); got != 0 {
		t.Errorf("expected subscriber removed, got %d", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(house int64) {
			defer wg.Done()
			c := mockClient(hub, house)
			hub.Register(c)
			hub.BroadcastInsert(chatMessage(0, house))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i % 3))
	}

	wg.Wait()

	for house := int64(0); house < 3; house++ {
		if got := hub.ClientCount(house); got != 0 {
			t.Errorf("expected 0 clients in house %d after concurrent test, got %d", house, got)
		}
	}
}
