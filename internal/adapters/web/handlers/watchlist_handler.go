package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

// WatchlistHandler manages a subscriber's watch entries.
type WatchlistHandler struct {
	Subs ports.SubscriberRepository
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(subs ports.SubscriberRepository) *WatchlistHandler {
	return &WatchlistHandler{Subs: subs}
}

// HandleList returns the caller's watch entries.
func (h *WatchlistHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sub := middleware.SubscriberFromContext(r.Context())
	if sub == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.Subs.WatchEntries(r.Context(), sub.ID)
	if err != nil {
		log.Printf("Failed to fetch watch entries: %v", err)
		http.Error(w, "Failed to fetch watch entries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entries": entries,
	})
}

// HandleAdd appends an entry to the caller's watch list. An empty product
// subscribes to every product of the vendor.
func (h *WatchlistHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	sub := middleware.SubscriberFromContext(r.Context())
	if sub == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Vendor  string `json:"vendor"`
		Product string `json:"product"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := domain.NewWatchEntry(req.Vendor, req.Product)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyVendor) {
			http.Error(w, "vendor is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Invalid watch entry", http.StatusBadRequest)
		return
	}

	if err := h.Subs.AddWatchEntry(r.Context(), sub.ID, entry); err != nil {
		log.Printf("Failed to add watch entry: %v", err)
		http.Error(w, "Failed to add watch entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}
