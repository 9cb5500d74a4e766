package ports

import (
	"context"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

// CollectResult summarizes one collection run.
type CollectResult struct {
	NewCount        int
	CriticalCount   int
	CriticalRecords []domain.VulnerabilityRecord
	DaysCollected   int
}

// BackfillResult summarizes a chunked historical load.
type BackfillResult struct {
	TotalNewCount      int
	TotalCriticalCount int
	MonthsLoaded       int
	ChunksProcessed    int
}

// Collector drives the fetch -> dedup -> extract -> persist pipeline.
type Collector interface {
	Collect(ctx context.Context, windowDays, offsetDays int, subscriberID string) (CollectResult, error)
	Backfill(ctx context.Context, months int, subscriberID string) (BackfillResult, error)
	Reprocess(ctx context.Context) (int, error)
}

// AlertDispatcher fans matched critical records out to subscribers.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, critical []domain.VulnerabilityRecord) (int, error)
}

// AuditService records and lists system actions.
type AuditService interface {
	Log(ctx context.Context, action domain.AuditAction, target, details string) error
	LogFor(ctx context.Context, subscriberID string, action domain.AuditAction, target, details string) error
	GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
