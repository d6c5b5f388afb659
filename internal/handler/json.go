package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/store"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// requireNeighbor writes 403 and returns false unless the authenticated user
// has joined house.
func requireNeighbor(w http.ResponseWriter, r *http.Request, neighbors *store.NeighborStore, house string) bool {
	n, err := neighbors.Get(house, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check membership")
		return false
	}
	if n == nil {
		writeError(w, http.StatusForbidden, "not a member of this house")
		return false
	}
	return true
}
