package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/nvd"
	"github.com/lcalzada-xor/cvewatch/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/cvewatch/internal/adapters/web/server"
	"github.com/lcalzada-xor/cvewatch/internal/config"
	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/alert"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/audit"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/ingest"
	"github.com/lcalzada-xor/cvewatch/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config       *config.Config
	Records      *storage.RecordStore
	Store        *storage.SQLiteAdapter
	FeedClient   *nvd.Client
	Pipeline     *ingest.Pipeline
	Dispatcher   *alert.Dispatcher
	AuditService *audit.AuditService
	WebServer    *webserver.Server

	tracerShutdown func(context.Context) error
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	shutdown, err := telemetry.InitTracer()
	if err != nil {
		log.Printf("Warning: tracer initialization failed: %v", err)
	} else {
		app.tracerShutdown = shutdown
	}

	if err := app.initStorage(); err != nil {
		return err
	}

	// 2. Feed Client
	app.FeedClient = nvd.NewClient(
		nvd.WithBaseURL(app.Config.FeedURL),
		nvd.WithRequestInterval(app.Config.FeedInterval),
	)

	// 3. Domain Services
	app.AuditService = audit.NewAuditService(app.Store)
	app.Pipeline = ingest.NewPipeline(app.FeedClient, app.Records, app.Store, app.AuditService)
	app.Dispatcher = alert.NewDispatcher(app.Store, app.Store, app.AuditService)

	if err := app.ensureDefaultSubscriber(); err != nil {
		log.Printf("Warning: could not ensure default subscriber: %v", err)
	}

	// 4. Server
	app.WebServer = webserver.NewServer(app.Config.Addr,
		app.Pipeline, app.Dispatcher, app.Records, app.Store, app.Store, app.AuditService)

	// Live critical-alert push
	app.Dispatcher.SetBroadcaster(app.WebServer.WSManager)

	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init subscriber storage: %w", err)
	}
	app.Store = store

	records, err := storage.NewRecordStore(app.Config.RecordsDBPath)
	if err != nil {
		return fmt.Errorf("failed to init record storage: %w", err)
	}
	app.Records = records

	return nil
}

// ensureDefaultSubscriber provisions an initial subscriber on an empty
// database so the trigger endpoints are usable out of the box. The API key
// is generated once and printed to the log; only its hash is stored.
func (app *Application) ensureDefaultSubscriber() error {
	ctx := context.Background()

	subs, err := app.Store.ListSubscribers(ctx)
	if err != nil {
		return err
	}
	if len(subs) > 0 {
		return nil
	}

	apiKey := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	sub := domain.Subscriber{
		ID:                   uuid.New().String(),
		Email:                "admin@localhost",
		NotificationsEnabled: true,
		APIKeyHash:           string(hash),
		CreatedAt:            time.Now().UTC(),
	}
	if err := app.Store.SaveSubscriber(ctx, sub); err != nil {
		return err
	}

	log.Println("Provisioning default subscriber...")
	log.Printf("Subscriber ID: %s", sub.ID)
	log.Printf("API key (shown once): %s", apiKey)
	return nil
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting cvewatch components...")

	// 1. Scheduled collection loop
	go app.runScheduler(ctx)

	// 2. Server
	errChan := make(chan error, 1)
	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	slog.Info("cvewatch ready", "addr", app.Config.Addr, "schedule", app.Config.ScheduleInterval)

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		return err
	}

	return app.cleanup()
}

// runScheduler triggers a global collection of the last day's records on
// every tick and dispatches alerts for the criticals found.
func (app *Application) runScheduler(ctx context.Context) {
	ticker := time.NewTicker(app.Config.ScheduleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := app.Pipeline.Collect(ctx, 1, 0, "")
			if err != nil {
				slog.Error("scheduled collection failed", "err", err)
				continue
			}
			if len(result.CriticalRecords) > 0 {
				if _, err := app.Dispatcher.Dispatch(ctx, result.CriticalRecords); err != nil {
					slog.Error("scheduled alert dispatch failed", "err", err)
				}
			}
		}
	}
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	if app.Records != nil {
		if err := app.Records.Close(); err != nil {
			log.Printf("Error closing record store: %v", err)
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			log.Printf("Error closing subscriber store: %v", err)
		}
	}
	if app.tracerShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.tracerShutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}

	return nil
}
