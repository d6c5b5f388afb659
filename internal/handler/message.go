package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/store"
	"github.com/xndadelin/Grosharing/internal/websocket"
)

const maxMessageLength = 2000

type MessageHandler struct {
	houseStore     *store.HouseStore
	messageStore   *store.MessageStore
	neighborStore  *store.NeighborStore
	hub            *websocket.Hub
	originPatterns []string
	logger         *slog.Logger
}

func NewMessageHandler(hs *store.HouseStore, ms *store.MessageStore, ns *store.NeighborStore, hub *websocket.Hub, originPatterns []string, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		houseStore:     hs,
		messageStore:   ms,
		neighborStore:  ns,
		hub:            hub,
		originPatterns: originPatterns,
		logger:         logger,
	}
}

// house resolves the house_id path value and checks membership.
func (h *MessageHandler) house(w http.ResponseWriter, r *http.Request) (*model.House, bool) {
	id, err := parseIDParam(r, "house_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid house_id")
		return nil, false
	}
	house, err := h.houseStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get house")
		return nil, false
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return nil, false
	}
	if !requireNeighbor(w, r, h.neighborStore, house.Name) {
		return nil, false
	}
	return house, true
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	house, ok := h.house(w, r)
	if !ok {
		return
	}
	msgs, err := h.messageStore.ListByHouse(house.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type messageRequest struct {
	Content string `json:"content"`
}

// Create stores a message and broadcasts it to the house's feed subscribers.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	house, ok := h.house(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(req.Content) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "message too long")
		return
	}

	msg, err := h.messageStore.Create(house.ID, auth.UserID(r.Context()), req.Content)
	if err != nil {
		h.logger.Error("create message", "house_id", house.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	h.hub.BroadcastInsert(*msg)
	writeJSON(w, http.StatusCreated, msg)
}

// Feed upgrades to a WebSocket that streams message inserts for the house.
func (h *MessageHandler) Feed(w http.ResponseWriter, r *http.Request) {
	house, ok := h.house(w, r)
	if !ok {
		return
	}
	websocket.Serve(h.hub, w, r, house.ID, h.originPatterns)
}
