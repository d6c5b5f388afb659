package handler

import (
	"net/http"
)

type PushHandler struct {
	vapidPublicKey string
}

// NewPushHandler serves push configuration to web clients. An empty key
// means web push is disabled.
func NewPushHandler(vapidPublicKey string) *PushHandler {
	return &PushHandler{vapidPublicKey: vapidPublicKey}
}

// VAPIDKey returns the public key browsers need to create a push
// subscription.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.vapidPublicKey == "" {
		writeError(w, http.StatusNotFound, "web push not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.vapidPublicKey})
}
