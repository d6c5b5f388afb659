package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xndadelin/Grosharing/internal/store"
)

type BudgetHandler struct {
	budgetStore   *store.BudgetStore
	neighborStore *store.NeighborStore
	logger        *slog.Logger
}

func NewBudgetHandler(bs *store.BudgetStore, ns *store.NeighborStore, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{budgetStore: bs, neighborStore: ns, logger: logger}
}

func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	house := r.PathValue("house")
	if !requireNeighbor(w, r, h.neighborStore, house) {
		return
	}
	b, err := h.budgetStore.Get(house)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get budget")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "budget not set")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type budgetRequest struct {
	Budget decimal.Decimal `json:"budget"`
}

// Put creates or replaces the house budget. The amount must be positive.
func (h *BudgetHandler) Put(w http.ResponseWriter, r *http.Request) {
	house := r.PathValue("house")
	if !requireNeighbor(w, r, h.neighborStore, house) {
		return
	}
	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Budget.IsPositive() {
		writeError(w, http.StatusBadRequest, "budget must be greater than zero")
		return
	}

	b, err := h.budgetStore.Upsert(house, req.Budget)
	if err != nil {
		h.logger.Error("upsert budget", "house", house, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update budget")
		return
	}
	writeJSON(w, http.StatusOK, b)
}
