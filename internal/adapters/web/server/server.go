package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/web"
	"github.com/lcalzada-xor/cvewatch/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	Subs      ports.SubscriberRepository
	WSManager *web.WSManager

	CollectHandler      *handlers.CollectHandler
	RecordsHandler      *handlers.RecordsHandler
	NotificationHandler *handlers.NotificationHandler
	AuditHandler        *handlers.AuditHandler
	WatchlistHandler    *handlers.WatchlistHandler

	srv *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, collector ports.Collector, dispatcher ports.AlertDispatcher,
	records ports.VulnerabilityRepository, subs ports.SubscriberRepository,
	notifications ports.NotificationRepository, auditService ports.AuditService) *Server {
	return &Server{
		Addr:      addr,
		Subs:      subs,
		WSManager: web.NewWSManager(),

		CollectHandler:      handlers.NewCollectHandler(collector, dispatcher),
		RecordsHandler:      handlers.NewRecordsHandler(records, subs),
		NotificationHandler: handlers.NewNotificationHandler(notifications),
		AuditHandler:        handlers.NewAuditHandler(auditService),
		WatchlistHandler:    handlers.NewWatchlistHandler(subs),
	}
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	handler := SetupRoutes(s)

	// Instrument with OpenTelemetry
	instrumentedHandler := otelhttp.NewHandler(handler, "cvewatch-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
