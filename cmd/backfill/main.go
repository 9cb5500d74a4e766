package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/nvd"
	"github.com/lcalzada-xor/cvewatch/internal/adapters/storage"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/audit"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/ingest"
	"github.com/lcalzada-xor/cvewatch/internal/telemetry"
)

func main() {
	months := flag.Int("months", 6, "Months of history to load (30-day months)")
	dbPath := flag.String("db", "./data/cvewatch.db", "Path to subscriber database")
	recordsPath := flag.String("records-db", "./data/records.db", "Path to vulnerability record database")
	feedURL := flag.String("feed-url", nvd.DefaultBaseURL, "Vulnerability feed base URL")
	feedInterval := flag.Duration("feed-interval", nvd.DefaultRequestInterval, "Minimum spacing between feed requests")
	subscriberID := flag.String("subscriber", "", "Limit the run to one subscriber's watch list (default: all)")
	flag.Parse()

	log.Println("=== Historical Backfill ===")
	log.Printf("Months: %d", *months)
	log.Printf("Records database: %s", *recordsPath)

	if *months < 1 {
		log.Fatal("months must be >= 1")
	}

	telemetry.InitMetrics()

	// Ensure data directories exist
	for _, p := range []string{*dbPath, *recordsPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	store, err := storage.NewSQLiteAdapter(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open subscriber database: %v", err)
	}
	defer store.Close()

	records, err := storage.NewRecordStore(*recordsPath)
	if err != nil {
		log.Fatalf("Failed to open record database: %v", err)
	}
	defer records.Close()

	client := nvd.NewClient(
		nvd.WithBaseURL(*feedURL),
		nvd.WithRequestInterval(*feedInterval),
	)

	auditService := audit.NewAuditService(store)
	pipeline := ingest.NewPipeline(client, records, store, auditService)

	start := time.Now()
	result, err := pipeline.Backfill(context.Background(), *months, *subscriberID)
	if err != nil {
		log.Fatalf("Backfill failed: %v", err)
	}

	count, _ := records.CountAll(context.Background())
	log.Printf("Backfill complete in %s: %d chunks, %d new records (%d critical)",
		time.Since(start).Round(time.Second),
		result.ChunksProcessed, result.TotalNewCount, result.TotalCriticalCount)
	log.Printf("Database now contains %d records", count)
}
