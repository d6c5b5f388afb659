package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize       = 16
	subscriberBufferSize = 64
	pingInterval         = 30 * time.Second
)

// Client represents a single WebSocket connection subscribed to one house.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	houseID int64
	send    chan []byte
}

// NewClient creates a Client tied to the given hub, connection and house.
func NewClient(hub *Hub, conn *ws.Conn, houseID int64) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		houseID: houseID,
		send:    make(chan []byte, sendBufferSize),
	}
}

// Run registers the client, acknowledges the subscription, starts the write
// pump, and runs the read pump. It blocks until the connection is closed,
// then unregisters.
func (c *Client) Run(ctx context.Context) {
	ack, _ := json.Marshal(Event{Type: EventSubscribed, Table: "messages"})
	c.send <- ack
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump reads and discards all incoming messages. The feed is one-way;
// messages are sent over the REST endpoint. It returns on error (connection
// close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub closed the channel; the connection is done.
				c.conn.Close(ws.StatusNormalClosure, "")
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
