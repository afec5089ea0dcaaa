package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"waypoint/internal/logstore"
)

const recentDefaultLimit = 50

// RecentHandler serves the most recent interaction records for operators, the
// pull-based companion to the watch socket.
type RecentHandler struct {
	store logstore.Store
}

func NewRecentHandler(store logstore.Store) *RecentHandler {
	return &RecentHandler{store: store}
}

func (h *RecentHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := recentDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, errorResponse{
				Error:   "invalid_request",
				Message: "limit must be an integer between 1 and 500",
			})
			return
		}
		limit = n
	}

	recs, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("recent interactions query failed: %v", err)
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:   "internal",
			Message: "could not load recent interactions",
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"interactions": recs}); err != nil {
		log.Printf("recent interactions encode failed: %v", err)
	}
}
