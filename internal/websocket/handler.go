package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Serve upgrades the request to a WebSocket and streams insert events for
// houseID until the connection closes. Authorization happens before Serve.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, houseID int64, originPatterns []string) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		hub.logger.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(hub, conn, houseID)
	client.Run(r.Context())
}
