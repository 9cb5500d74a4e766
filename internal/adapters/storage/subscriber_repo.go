package storage

import (
	"context"
	"errors"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
	"gorm.io/gorm"
)

// Ensure interface compliance
var _ ports.SubscriberRepository = (*SQLiteAdapter)(nil)

// GetSubscriber retrieves a subscriber by ID, or (nil, nil) when absent.
func (a *SQLiteAdapter) GetSubscriber(ctx context.Context, id string) (*domain.Subscriber, error) {
	var model SubscriberModel
	if err := a.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return subscriberToDomain(model), nil
}

// ListSubscribers returns all subscribers.
func (a *SQLiteAdapter) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	var models []SubscriberModel
	if err := a.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}

	subs := make([]domain.Subscriber, len(models))
	for i, m := range models {
		subs[i] = *subscriberToDomain(m)
	}
	return subs, nil
}

// ListNotifiable returns subscribers with notifications enabled.
func (a *SQLiteAdapter) ListNotifiable(ctx context.Context) ([]domain.Subscriber, error) {
	var models []SubscriberModel
	if err := a.db.WithContext(ctx).
		Where("notifications_enabled = ?", true).
		Find(&models).Error; err != nil {
		return nil, err
	}

	subs := make([]domain.Subscriber, len(models))
	for i, m := range models {
		subs[i] = *subscriberToDomain(m)
	}
	return subs, nil
}

// WatchEntries returns the subscriber's watch list.
func (a *SQLiteAdapter) WatchEntries(ctx context.Context, subscriberID string) ([]domain.WatchEntry, error) {
	var models []WatchEntryModel
	if err := a.db.WithContext(ctx).
		Where("subscriber_id = ?", subscriberID).
		Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]domain.WatchEntry, len(models))
	for i, m := range models {
		entries[i] = watchEntryToDomain(m)
	}
	return entries, nil
}

// AllWatchEntries returns every subscriber's watch entries.
func (a *SQLiteAdapter) AllWatchEntries(ctx context.Context) ([]domain.WatchEntry, error) {
	var models []WatchEntryModel
	if err := a.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]domain.WatchEntry, len(models))
	for i, m := range models {
		entries[i] = watchEntryToDomain(m)
	}
	return entries, nil
}

// SaveSubscriber creates or updates a subscriber.
func (a *SQLiteAdapter) SaveSubscriber(ctx context.Context, sub domain.Subscriber) error {
	model := subscriberToModel(sub)
	return a.db.WithContext(ctx).Save(&model).Error
}

// AddWatchEntry appends an entry to the subscriber's watch list. Duplicate
// vendor/product pairs are kept idempotent via FirstOrCreate.
func (a *SQLiteAdapter) AddWatchEntry(ctx context.Context, subscriberID string, entry domain.WatchEntry) error {
	var model WatchEntryModel
	return a.db.WithContext(ctx).
		Where(&WatchEntryModel{SubscriberID: subscriberID, Vendor: entry.Vendor, Product: entry.Product}).
		FirstOrCreate(&model, WatchEntryModel{
			SubscriberID: subscriberID,
			Vendor:       entry.Vendor,
			Product:      entry.Product,
		}).Error
}
