package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
	"github.com/lcalzada-xor/cvewatch/internal/core/services/extract"
	"github.com/lcalzada-xor/cvewatch/internal/telemetry"
)

const (
	// MaxWindowDays is the feed's per-query day-window maximum. Larger
	// historical loads are chunked into successive windows of this size.
	MaxWindowDays = 120

	// statusRejected is the only feed lifecycle status that excludes a
	// record from ingestion; provisional/under-analysis records are kept.
	statusRejected = "Rejected"

	// reprocessWindowDays bounds the fetch window of a reprocessing pass.
	reprocessWindowDays = 30
)

// Pipeline orchestrates fetch -> dedup-check -> extract -> persist per
// logical collection run. Runs execute serially: the feed quota is the
// limiting shared resource and the client's inter-request delay is already
// the bottleneck.
type Pipeline struct {
	feed    ports.FeedClient
	records ports.VulnerabilityRepository
	subs    ports.SubscriberRepository
	audit   ports.AuditService
	now     func() time.Time
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(feed ports.FeedClient, records ports.VulnerabilityRepository, subs ports.SubscriberRepository, audit ports.AuditService) *Pipeline {
	return &Pipeline{
		feed:    feed,
		records: records,
		subs:    subs,
		audit:   audit,
		now:     time.Now,
	}
}

// Collect runs one collection pass over the [now-offset-window, now-offset)
// publication window. When subscriberID is non-empty only that subscriber's
// watch entries drive the per-vendor feed queries; otherwise (scheduled
// run) every subscriber's entries are aggregated into one read-only
// snapshot for the run.
func (p *Pipeline) Collect(ctx context.Context, windowDays, offsetDays int, subscriberID string) (ports.CollectResult, error) {
	result := ports.CollectResult{DaysCollected: windowDays}

	terms, err := p.vendorTerms(ctx, subscriberID)
	if err != nil {
		return result, fmt.Errorf("resolving vendor terms: %w", err)
	}
	if len(terms) == 0 {
		// No watch entries: zero-result outcome without contacting the feed.
		slog.Info("collection skipped: no vendor terms", "subscriber", subscriberID)
		return result, nil
	}

	end := p.now().UTC().Add(-time.Duration(offsetDays) * 24 * time.Hour)
	start := end.Add(-time.Duration(windowDays) * 24 * time.Hour)

	// One vendor-scoped query per term; the client downgrades per-vendor
	// failures to empty results so one vendor's outage never aborts the run.
	byID := make(map[string]domain.FeedRecord)
	var order []string
	fetched := 0
	for _, term := range terms {
		recs := p.feed.FetchByVendor(ctx, start, end, term)
		slog.Info("vendor query complete", "vendor", term, "records", len(recs))
		fetched += len(recs)
		for _, rec := range recs {
			id := rec.CVE.ID
			if id == "" {
				continue
			}
			if _, seen := byID[id]; !seen {
				order = append(order, id)
			}
			byID[id] = rec // last-seen wins; shapes are identical per id
		}
	}

	kept := 0
	for _, id := range order {
		rec := byID[id]
		if rec.CVE.VulnStatus == statusRejected {
			telemetry.RecordsSkipped.WithLabelValues("rejected").Inc()
			continue
		}
		kept++

		processed, critical, stored, err := p.processRecord(ctx, rec)
		if err != nil {
			// Extraction never fails; this is a store error. Log and move on,
			// the skip-if-exists check makes a retry on the next run safe.
			slog.Error("failed to persist record", "id", id, "err", err)
			continue
		}
		if processed {
			result.NewCount++
			telemetry.RecordsIngested.Inc()
			if critical {
				result.CriticalCount++
				result.CriticalRecords = append(result.CriticalRecords, stored)
			}
		} else {
			telemetry.RecordsSkipped.WithLabelValues("exists").Inc()
		}
	}

	details := fmt.Sprintf("fetched=%d unique=%d kept=%d skipped=%d new=%d critical=%d",
		fetched, len(byID), kept, len(byID)-kept, result.NewCount, result.CriticalCount)
	if err := p.audit.LogFor(ctx, subscriberID, domain.ActionCollection, "feed", details); err != nil {
		slog.Error("failed to write collection audit entry", "err", err)
	}

	slog.Info("collection complete",
		"unique", len(byID), "kept", kept,
		"new", result.NewCount, "critical", result.CriticalCount)

	return result, nil
}

// processRecord applies the idempotency boundary, then extracts and
// persists. Returns processed=false when a record with the same identifier
// already exists (no re-extraction, no overwrite).
func (p *Pipeline) processRecord(ctx context.Context, raw domain.FeedRecord) (processed, critical bool, stored domain.VulnerabilityRecord, err error) {
	exists, err := p.records.Exists(ctx, raw.CVE.ID)
	if err != nil {
		return false, false, stored, err
	}
	if exists {
		return false, false, stored, nil
	}

	rec := extract.Record(raw)
	rec.CollectedAt = p.now().UTC()

	inserted, err := p.records.CreateIfAbsent(ctx, rec)
	if err != nil {
		return false, false, stored, err
	}
	if !inserted {
		// A concurrent run won the narrow exists/write race. The payload is
		// derived identically from the same source record, so this is the
		// expected idempotency signal, not an error.
		return false, false, stored, nil
	}

	return true, rec.IsCritical(), rec, nil
}

// Backfill loads months*30 days of history in independent ≤120-day chunks,
// each idempotent on its own. Results are summed across chunks.
func (p *Pipeline) Backfill(ctx context.Context, months int, subscriberID string) (ports.BackfillResult, error) {
	totalDays := months * 30
	chunks := (totalDays + MaxWindowDays - 1) / MaxWindowDays

	result := ports.BackfillResult{MonthsLoaded: months}

	for i := 0; i < chunks; i++ {
		startDaysBack := i * MaxWindowDays
		endDaysBack := (i + 1) * MaxWindowDays
		if endDaysBack > totalDays {
			endDaysBack = totalDays
		}
		daysInChunk := endDaysBack - startDaysBack

		slog.Info("backfill chunk", "chunk", i+1, "of", chunks, "days_back", startDaysBack)

		chunkResult, err := p.Collect(ctx, daysInChunk, startDaysBack, subscriberID)
		if err != nil {
			return result, fmt.Errorf("backfill chunk %d/%d: %w", i+1, chunks, err)
		}

		result.TotalNewCount += chunkResult.NewCount
		result.TotalCriticalCount += chunkResult.CriticalCount
		result.ChunksProcessed++
	}

	if err := p.audit.LogFor(ctx, subscriberID, domain.ActionBackfill, "feed",
		fmt.Sprintf("months=%d chunks=%d new=%d critical=%d",
			months, result.ChunksProcessed, result.TotalNewCount, result.TotalCriticalCount)); err != nil {
		slog.Error("failed to write backfill audit entry", "err", err)
	}

	return result, nil
}

// Reprocess re-runs identifier extraction over currently-fetchable feed
// records and overwrites vendors/products (plus the reprocessedAt marker)
// on records that already exist in the store. It never creates records.
// Feed failures here are fatal to the whole operation.
func (p *Pipeline) Reprocess(ctx context.Context) (int, error) {
	end := p.now().UTC()
	start := end.Add(-reprocessWindowDays * 24 * time.Hour)

	recs, err := p.feed.FetchWindow(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetching records for reprocessing: %w", err)
	}

	updated := 0
	for _, raw := range recs {
		id := raw.CVE.ID
		if id == "" {
			continue
		}

		vendors, products := extract.Identifiers(raw)

		ok, err := p.records.UpdateExtraction(ctx, id, vendors, products)
		if err != nil {
			slog.Error("failed to update extraction", "id", id, "err", err)
			continue
		}
		if ok {
			updated++
		}
	}

	if err := p.audit.Log(ctx, domain.ActionReprocess, "store",
		fmt.Sprintf("fetched=%d updated=%d", len(recs), updated)); err != nil {
		slog.Error("failed to write reprocess audit entry", "err", err)
	}

	slog.Info("reprocessing complete", "fetched", len(recs), "updated", updated)
	return updated, nil
}

// vendorTerms assembles the run's read-only vendor-term snapshot.
func (p *Pipeline) vendorTerms(ctx context.Context, subscriberID string) ([]string, error) {
	var entries []domain.WatchEntry
	var err error

	if subscriberID != "" {
		entries, err = p.subs.WatchEntries(ctx, subscriberID)
	} else {
		entries, err = p.subs.AllWatchEntries(ctx)
	}
	if err != nil {
		return nil, err
	}

	return domain.VendorTerms(entries), nil
}

// Ensure interface compliance
var _ ports.Collector = (*Pipeline)(nil)
