package storage

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter implements the subscriber, notification and audit
// repositories using GORM and SQLite. Vulnerability records live in a
// separate store (see RecordStore); this database holds everything that
// belongs to subscribers.
type SQLiteAdapter struct {
	db *gorm.DB
}

// SubscriberModel is the GORM model for subscribers.
type SubscriberModel struct {
	ID                   string `gorm:"primaryKey"`
	Email                string `gorm:"uniqueIndex"`
	NotificationsEnabled bool
	APIKeyHash           string
	CreatedAt            time.Time

	WatchEntries []WatchEntryModel `gorm:"foreignKey:SubscriberID"`
}

// WatchEntryModel stores one vendor/product interest of a subscriber.
type WatchEntryModel struct {
	ID           uint   `gorm:"primaryKey"`
	SubscriberID string `gorm:"index"`
	Vendor       string
	Product      string
}

// NotificationModel stores one alert fan-out result.
type NotificationModel struct {
	ID           string `gorm:"primaryKey"`
	SubscriberID string `gorm:"index"`
	Type         string
	RecordIDs    string // JSON encoded []string
	Count        int
	Read         bool
	CreatedAt    time.Time
}

// AuditLogModel stores one completed system action.
type AuditLogModel struct {
	ID           uint `gorm:"primaryKey"`
	SubscriberID string
	Action       string
	Target       string
	Details      string
	Timestamp    time.Time `gorm:"index"`
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Trace queries through the global tracer provider
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// Auto Migrate
	if err := db.AutoMigrate(&SubscriberModel{}, &WatchEntryModel{}, &NotificationModel{}, &AuditLogModel{}); err != nil {
		return nil, err
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_watch_entries_vendor ON watch_entry_models(vendor)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_created ON notification_models(created_at)")

	return &SQLiteAdapter{db: db}, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
