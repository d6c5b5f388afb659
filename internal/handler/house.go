package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/push"
	"github.com/xndadelin/Grosharing/internal/store"
)

type HouseHandler struct {
	houseStore    *store.HouseStore
	neighborStore *store.NeighborStore
	notifier      push.Notifier
	logger        *slog.Logger
}

// NewHouseHandler creates the house and roster endpoints. notifier may be nil
// to skip join notifications.
func NewHouseHandler(hs *store.HouseStore, ns *store.NeighborStore, notifier push.Notifier, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{
		houseStore:    hs,
		neighborStore: ns,
		notifier:      notifier,
		logger:        logger,
	}
}

type houseResponse struct {
	model.House
	Joined bool `json:"joined"`
}

func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	houses, err := h.houseStore.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list houses")
		return
	}
	joined, err := h.neighborStore.ListHousesForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list houses")
		return
	}
	member := make(map[string]bool, len(joined))
	for _, name := range joined {
		member[name] = true
	}

	resp := make([]houseResponse, 0, len(houses))
	for _, house := range houses {
		resp = append(resp, houseResponse{House: house, Joined: member[house.Name]})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	house, err := h.houseStore.GetByName(r.PathValue("house"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get house")
		return
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}
	writeJSON(w, http.StatusOK, house)
}

type joinRequest struct {
	Password string `json:"password"`
}

// Join adds the user to the house roster after checking the house password.
// Joining twice is not an error.
func (h *HouseHandler) Join(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("house")
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	house, err := h.houseStore.GetByName(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}

	ok, err := h.houseStore.CheckPassword(house.Name, req.Password)
	if err != nil {
		h.logger.Error("check house password", "house", house.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "incorrect password")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	neighbor, created, err := h.neighborStore.Join(house.Name, ac.User())
	if err != nil {
		h.logger.Error("join house", "house", house.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info("neighbor joined", "house", house.Name, "user", ac.UserID)
		h.notifyJoined(r.Context(), house.Name, *neighbor)
	}
	writeJSON(w, status, neighbor)
}

func (h *HouseHandler) notifyJoined(ctx context.Context, house string, joined model.Neighbor) {
	if h.notifier == nil {
		return
	}
	neighbors, err := h.neighborStore.ListByHouse(house)
	if err != nil {
		h.logger.Warn("list neighbors for join notification", "house", house, "error", err)
		return
	}
	others := neighbors[:0]
	for _, n := range neighbors {
		if n.SlackID != joined.SlackID {
			others = append(others, n)
		}
	}
	n := model.Notification{
		Title: "New neighbor",
		Body:  fmt.Sprintf("%s joined %s", joined.FullName, house),
		Data: map[string]string{
			"type":  model.NotifTypeNeighborJoined,
			"house": house,
		},
	}
	push.Broadcast(ctx, h.notifier, others, func(model.Neighbor) model.Notification { return n }, h.neighborStore, h.logger)
}

func (h *HouseHandler) ListNeighbors(w http.ResponseWriter, r *http.Request) {
	house := r.PathValue("house")
	if !requireNeighbor(w, r, h.neighborStore, house) {
		return
	}
	neighbors, err := h.neighborStore.ListByHouse(house)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list neighbors")
		return
	}
	if neighbors == nil {
		neighbors = []model.Neighbor{}
	}
	writeJSON(w, http.StatusOK, neighbors)
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// SetPushToken stores the caller's device token on their membership row.
func (h *HouseHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	house := r.PathValue("house")
	var req pushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if !push.ValidToken(req.Token) {
		writeError(w, http.StatusBadRequest, "invalid push token")
		return
	}

	ok, err := h.neighborStore.SetPushToken(house, auth.UserID(r.Context()), req.Token)
	if err != nil {
		h.logger.Error("set push token", "house", house, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save push token")
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "not a member of this house")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
