package ports

import (
	"context"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

// VulnerabilityRepository persists canonical vulnerability records.
type VulnerabilityRepository interface {
	// Exists reports whether a record with the given feed identifier is
	// already stored. This is the ingestion idempotency boundary.
	Exists(ctx context.Context, id string) (bool, error)

	// CreateIfAbsent writes the record unless one with the same id already
	// exists, atomically. Returns true when the record was inserted, false
	// when an existing record made the write a no-op.
	CreateIfAbsent(ctx context.Context, rec domain.VulnerabilityRecord) (bool, error)

	// UpdateExtraction overwrites only the vendors/products sets and stamps
	// reprocessedAt on an existing record. CollectedAt and all other core
	// fields are never touched. Returns false when no such record exists.
	UpdateExtraction(ctx context.Context, id string, vendors, products []string) (bool, error)

	// GetByID returns the record, or (nil, nil) when absent.
	GetByID(ctx context.Context, id string) (*domain.VulnerabilityRecord, error)

	// ListRecent returns up to limit records, most recently published first.
	ListRecent(ctx context.Context, limit int) ([]domain.VulnerabilityRecord, error)

	// CountAll returns the total number of stored records.
	CountAll(ctx context.Context) (int, error)

	Close() error
}

// SubscriberRepository persists subscribers and their watch lists.
type SubscriberRepository interface {
	GetSubscriber(ctx context.Context, id string) (*domain.Subscriber, error)
	ListSubscribers(ctx context.Context) ([]domain.Subscriber, error)

	// ListNotifiable returns subscribers flagged as wanting notifications.
	ListNotifiable(ctx context.Context) ([]domain.Subscriber, error)

	// WatchEntries returns the subscriber's watch list.
	WatchEntries(ctx context.Context, subscriberID string) ([]domain.WatchEntry, error)

	// AllWatchEntries returns every subscriber's watch entries, as a
	// read-only snapshot assembled once per collection run.
	AllWatchEntries(ctx context.Context) ([]domain.WatchEntry, error)

	SaveSubscriber(ctx context.Context, sub domain.Subscriber) error
	AddWatchEntry(ctx context.Context, subscriberID string, entry domain.WatchEntry) error
}

// NotificationRepository persists alert fan-out results.
type NotificationRepository interface {
	SaveNotification(ctx context.Context, n domain.Notification) error
	ListNotifications(ctx context.Context, subscriberID string, limit int) ([]domain.Notification, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	SaveAuditLog(ctx context.Context, log domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
