package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	auth := middleware.AuthMiddleware(s.Subs)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// Trigger endpoints start feed runs; keep them on a tight budget.
	triggerLimiter := middleware.NewRateLimiter(5, 1*time.Minute)
	protectTrigger := func(h http.HandlerFunc) http.Handler {
		return middleware.RateLimitMiddleware(triggerLimiter)(auth(h))
	}

	r.Handle("/api/collect", protectTrigger(s.CollectHandler.HandleCollect)).Methods(http.MethodPost)
	r.Handle("/api/backfill", protectTrigger(s.CollectHandler.HandleBackfill)).Methods(http.MethodPost)
	r.Handle("/api/reprocess", protectTrigger(s.CollectHandler.HandleReprocess)).Methods(http.MethodPost)

	r.Handle("/api/records", protect(s.RecordsHandler.HandleList)).Methods(http.MethodGet)
	r.Handle("/api/watchlist", protect(s.WatchlistHandler.HandleList)).Methods(http.MethodGet)
	r.Handle("/api/watchlist", protect(s.WatchlistHandler.HandleAdd)).Methods(http.MethodPost)
	r.Handle("/api/notifications", protect(s.NotificationHandler.HandleList)).Methods(http.MethodGet)
	r.Handle("/api/audit", protect(s.AuditHandler.HandleGetLogs)).Methods(http.MethodGet)

	// WebSocket endpoint (protected)
	r.Handle("/ws", protect(s.WSManager.HandleWebSocket))

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
