package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

func newTestAdapter(t *testing.T) *SQLiteAdapter {
	t.Helper()
	adapter, err := NewSQLiteAdapter(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return adapter
}

func TestSubscriberRoundTrip(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	sub := domain.Subscriber{
		ID:                   "sub-1",
		Email:                "ops@example.com",
		NotificationsEnabled: true,
		APIKeyHash:           "$2a$10$hash",
		CreatedAt:            time.Now().UTC(),
	}
	require.NoError(t, adapter.SaveSubscriber(ctx, sub))

	got, err := adapter.GetSubscriber(ctx, "sub-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ops@example.com", got.Email)
	assert.True(t, got.NotificationsEnabled)
	assert.Equal(t, "$2a$10$hash", got.APIKeyHash)
}

func TestGetSubscriberMissing(t *testing.T) {
	adapter := newTestAdapter(t)

	got, err := adapter.GetSubscriber(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListNotifiable(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.SaveSubscriber(ctx, domain.Subscriber{
		ID: "sub-on", Email: "on@example.com", NotificationsEnabled: true,
	}))
	require.NoError(t, adapter.SaveSubscriber(ctx, domain.Subscriber{
		ID: "sub-off", Email: "off@example.com", NotificationsEnabled: false,
	}))

	subs, err := adapter.ListNotifiable(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub-on", subs[0].ID)
}

func TestAddWatchEntryIdempotent(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	entry := domain.WatchEntry{Vendor: "apache", Product: "tomcat"}
	require.NoError(t, adapter.AddWatchEntry(ctx, "sub-1", entry))
	require.NoError(t, adapter.AddWatchEntry(ctx, "sub-1", entry))

	entries, err := adapter.WatchEntries(ctx, "sub-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "apache", entries[0].Vendor)
	assert.Equal(t, "tomcat", entries[0].Product)
}

func TestWatchEntriesScopedToSubscriber(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.AddWatchEntry(ctx, "sub-1", domain.WatchEntry{Vendor: "apache", Product: "*"}))
	require.NoError(t, adapter.AddWatchEntry(ctx, "sub-2", domain.WatchEntry{Vendor: "oracle", Product: "*"}))

	entries, err := adapter.WatchEntries(ctx, "sub-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "apache", entries[0].Vendor)

	all, err := adapter.AllWatchEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNotificationRoundTrip(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"n-1", "n-2", "n-3"} {
		err := adapter.SaveNotification(ctx, domain.Notification{
			ID:           id,
			SubscriberID: "sub-1",
			Type:         domain.NotificationTypeCriticalAlert,
			RecordIDs:    []string{"CVE-2024-0001", "CVE-2024-0002"},
			Count:        2,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	require.NoError(t, adapter.SaveNotification(ctx, domain.Notification{
		ID: "n-other", SubscriberID: "sub-2",
		Type: domain.NotificationTypeCriticalAlert, CreatedAt: base,
	}))

	got, err := adapter.ListNotifications(ctx, "sub-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first, other subscribers excluded.
	assert.Equal(t, "n-3", got[0].ID)
	assert.Equal(t, "n-2", got[1].ID)
	assert.Equal(t, []string{"CVE-2024-0001", "CVE-2024-0002"}, got[0].RecordIDs)
	assert.Equal(t, 2, got[0].Count)
}

func TestAuditLogOrdering(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	actions := []domain.AuditAction{domain.ActionCollection, domain.ActionReprocess, domain.ActionAlert}
	for i, action := range actions {
		err := adapter.SaveAuditLog(ctx, domain.AuditLog{
			SubscriberID: "sub-1",
			Action:       action,
			Target:       "feed",
			Details:      "ok",
			Timestamp:    base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	logs, err := adapter.ListAuditLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, domain.ActionAlert, logs[0].Action)
	assert.Equal(t, domain.ActionReprocess, logs[1].Action)
}
