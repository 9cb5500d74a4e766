package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/match"
)

const defaultRecordLimit = 100

// RecordsHandler serves stored vulnerability records annotated with the
// caller's match quality.
type RecordsHandler struct {
	Records ports.VulnerabilityRepository
	Subs    ports.SubscriberRepository
}

// NewRecordsHandler creates a new RecordsHandler
func NewRecordsHandler(records ports.VulnerabilityRepository, subs ports.SubscriberRepository) *RecordsHandler {
	return &RecordsHandler{Records: records, Subs: subs}
}

type annotatedRecord struct {
	domain.VulnerabilityRecord
	MatchQuality string `json:"matchQuality,omitempty"`
}

// HandleList returns recent records. ?quality= restricts to a minimum
// match tier against the caller's watch list (exact|close|possible);
// without it every record is returned, annotated where a match exists.
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sub := middleware.SubscriberFromContext(r.Context())
	if sub == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := defaultRecordLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	var minRank int
	if q := r.URL.Query().Get("quality"); q != "" {
		quality := domain.MatchQuality(strings.ToUpper(q))
		if quality.Rank() == 0 {
			http.Error(w, "quality must be exact, close or possible", http.StatusBadRequest)
			return
		}
		minRank = quality.Rank()
	}

	entries, err := h.Subs.WatchEntries(r.Context(), sub.ID)
	if err != nil {
		log.Printf("Failed to load watch entries: %v", err)
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}

	recs, err := h.Records.ListRecent(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to list records: %v", err)
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}

	annotated := make([]annotatedRecord, 0, len(recs))
	for _, rec := range recs {
		result := match.Quality(rec, entries)
		if minRank > 0 && (result == nil || result.Quality.Rank() < minRank) {
			continue
		}
		a := annotatedRecord{VulnerabilityRecord: rec}
		if result != nil {
			a.MatchQuality = string(result.Quality)
		}
		annotated = append(annotated, a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"records": annotated,
		"count":   len(annotated),
	})
}
