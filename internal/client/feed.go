package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"

	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/websocket"
)

const feedBufferSize = 64

func chatPath(houseID int64, suffix string) string {
	return fmt.Sprintf("/api/chats/%d%s", houseID, suffix)
}

func (c *Client) ListMessages(ctx context.Context, houseID int64) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	if err := c.do(ctx, http.MethodGet, chatPath(houseID, "/messages"), nil, &msgs); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, houseID int64, content string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	if err := c.do(ctx, http.MethodPost, chatPath(houseID, "/messages"), map[string]string{"content": content}, &msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

// Subscribe opens the house's insert feed. It returns once the server has
// acknowledged the subscription, so every message stored afterwards is
// delivered. The channel closes when ctx is cancelled or the connection
// drops; there is no reconnect.
func (c *Client) Subscribe(ctx context.Context, houseID int64) (<-chan model.ChatMessage, error) {
	u := c.baseURL + chatPath(houseID, "/ws")
	u = "ws" + strings.TrimPrefix(u, "http")

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := ws.Dial(ctx, u, &ws.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil && resp.StatusCode >= 300 {
			return nil, fmt.Errorf("dial chat feed: %w", &APIError{Status: resp.StatusCode})
		}
		return nil, fmt.Errorf("dial chat feed: %w", err)
	}

	ev, err := readEvent(ctx, conn)
	if err != nil {
		conn.Close(ws.StatusInternalError, "")
		return nil, fmt.Errorf("read feed ack: %w", err)
	}
	if ev.Type != websocket.EventSubscribed {
		conn.Close(ws.StatusProtocolError, "")
		return nil, fmt.Errorf("read feed ack: unexpected %s event", ev.Type)
	}

	out := make(chan model.ChatMessage, feedBufferSize)
	go func() {
		defer close(out)
		defer conn.Close(ws.StatusNormalClosure, "")
		for {
			ev, err := readEvent(ctx, conn)
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("chat feed closed", "house_id", houseID, "error", err)
				}
				return
			}
			if ev.Type != websocket.EventInsert {
				continue
			}
			select {
			case out <- ev.Record:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func readEvent(ctx context.Context, conn *ws.Conn) (websocket.Event, error) {
	var ev websocket.Event
	_, data, err := conn.Read(ctx)
	if err != nil {
		return ev, err
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
