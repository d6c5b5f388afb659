package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/push"
	"github.com/xndadelin/Grosharing/internal/store"
)

type GroceryHandler struct {
	groceryStore  *store.GroceryStore
	neighborStore *store.NeighborStore
	notifier      push.Notifier
	logger        *slog.Logger
}

// NewGroceryHandler creates the grocery list endpoints. notifier may be nil
// to skip add and completion notifications.
func NewGroceryHandler(gs *store.GroceryStore, ns *store.NeighborStore, notifier push.Notifier, logger *slog.Logger) *GroceryHandler {
	return &GroceryHandler{groceryStore: gs, neighborStore: ns, notifier: notifier, logger: logger}
}

type groceryItemRequest struct {
	ItemName    string              `json:"item_name"`
	Quantity    int                 `json:"quantity"`
	Description string              `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	ImageURL    *string             `json:"image_url"`
}

func (h *GroceryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	house := r.PathValue("house")
	if !requireNeighbor(w, r, h.neighborStore, house) {
		return
	}

	items, err := h.groceryStore.ListItemsByHouse(house)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.GroceryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItem adds an item to the house list. The adding user comes from the
// session, not the request body.
func (h *GroceryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	house := r.PathValue("house")
	if !requireNeighbor(w, r, h.neighborStore, house) {
		return
	}

	var req groceryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.ItemName = strings.TrimSpace(req.ItemName)
	if req.ItemName == "" {
		writeError(w, http.StatusBadRequest, "item_name is required")
		return
	}
	if req.Price.Valid && req.Price.Decimal.IsNegative() {
		writeError(w, http.StatusBadRequest, "price cannot be negative")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	ac, _ := auth.FromContext(r.Context())
	item, err := h.groceryStore.CreateItem(model.NewGroceryItem{
		House:       house,
		ItemName:    req.ItemName,
		Quantity:    req.Quantity,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		AddedBy:     ac.FullName,
		SlackID:     ac.UserID,
	})
	if err != nil {
		h.logger.Error("create grocery item", "house", house, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	h.notifyHouse(r.Context(), house, ac.UserID, func(self bool) model.Notification {
		return push.ItemAdded(ac.FullName, item.ItemName, self)
	})
	writeJSON(w, http.StatusCreated, item)
}

// SetCompletion applies a conditional completion change. A stale
// expected_completed yields 409 with the current item.
func (h *GroceryHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.groceryStore.GetItemByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if !requireNeighbor(w, r, h.neighborStore, existing.House) {
		return
	}

	var req model.CompletionUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed {
		if req.CompletedBy == nil || strings.TrimSpace(*req.CompletedBy) == "" {
			ac, _ := auth.FromContext(r.Context())
			name := ac.FullName
			req.CompletedBy = &name
		}
	} else {
		req.CompletedBy = nil
	}

	item, err := h.groceryStore.SetCompletion(id, req)
	if errors.Is(err, store.ErrConflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "item changed concurrently",
			"item":  item,
		})
		return
	}
	if err != nil {
		h.logger.Error("set completion", "item", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	if !existing.Completed && item.Completed && item.CompletedBy != nil {
		ac, _ := auth.FromContext(r.Context())
		h.notifyHouse(r.Context(), item.House, ac.UserID, func(self bool) model.Notification {
			return push.ItemCompleted(*item.CompletedBy, item.ItemName, self)
		})
	}
	writeJSON(w, http.StatusOK, item)
}

// notifyHouse sends a notification to every neighbor of house with a push
// token. The actor gets the self-worded variant. Expired tokens are cleared.
func (h *GroceryHandler) notifyHouse(ctx context.Context, house, actorID string, compose func(self bool) model.Notification) {
	if h.notifier == nil {
		return
	}
	neighbors, err := h.neighborStore.ListByHouse(house)
	if err != nil {
		h.logger.Warn("list neighbors for notification", "house", house, "error", err)
		return
	}
	sent := push.Broadcast(ctx, h.notifier, neighbors, func(nb model.Neighbor) model.Notification {
		return compose(nb.SlackID == actorID)
	}, h.neighborStore, h.logger)
	h.logger.Debug("notifications sent", "house", house, "count", sent)
}
