package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

const (
	defaultDaysBack = 30
	maxDaysBack     = 120
	maxMonths       = 24
)

// CollectHandler exposes the ingestion trigger endpoints.
type CollectHandler struct {
	Collector  ports.Collector
	Dispatcher ports.AlertDispatcher
}

// NewCollectHandler creates a new CollectHandler
func NewCollectHandler(collector ports.Collector, dispatcher ports.AlertDispatcher) *CollectHandler {
	return &CollectHandler{
		Collector:  collector,
		Dispatcher: dispatcher,
	}
}

// HandleCollect triggers a collection run over the last daysBack days.
func (h *CollectHandler) HandleCollect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DaysBack *int `json:"daysBack"`
	}
	// An empty body means defaults; a malformed one is a client error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	daysBack := defaultDaysBack
	if req.DaysBack != nil {
		daysBack = *req.DaysBack
	}
	if daysBack < 0 {
		daysBack = 0
	}
	if daysBack > maxDaysBack {
		daysBack = maxDaysBack
	}

	sub := middleware.SubscriberFromContext(r.Context())
	if sub == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.Collector.Collect(r.Context(), daysBack, 0, sub.ID)
	if err != nil {
		log.Printf("Collection failed: %v", err)
		http.Error(w, "Collection failed", http.StatusInternalServerError)
		return
	}

	if len(result.CriticalRecords) > 0 {
		if _, err := h.Dispatcher.Dispatch(r.Context(), result.CriticalRecords); err != nil {
			log.Printf("Alert dispatch failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"newCount":      result.NewCount,
		"criticalCount": result.CriticalCount,
		"daysCollected": result.DaysCollected,
	})
}

// HandleBackfill triggers a chunked historical load.
func (h *CollectHandler) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Months int `json:"months"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Months < 1 || req.Months > maxMonths {
		http.Error(w, "months must be between 1 and 24", http.StatusBadRequest)
		return
	}

	sub := middleware.SubscriberFromContext(r.Context())
	if sub == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.Collector.Backfill(r.Context(), req.Months, sub.ID)
	if err != nil {
		log.Printf("Backfill failed: %v", err)
		http.Error(w, "Backfill failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"totalNewCount":      result.TotalNewCount,
		"totalCriticalCount": result.TotalCriticalCount,
		"monthsLoaded":       result.MonthsLoaded,
		"chunksProcessed":    result.ChunksProcessed,
	})
}

// HandleReprocess re-runs identifier extraction over recent records.
func (h *CollectHandler) HandleReprocess(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Collector.Reprocess(r.Context())
	if err != nil {
		log.Printf("Reprocessing failed: %v", err)
		http.Error(w, "Reprocessing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"updated": updated,
	})
}
