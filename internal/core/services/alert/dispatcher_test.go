package alert

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

type fakeSubs struct {
	notifiable []domain.Subscriber
	entries    map[string][]domain.WatchEntry
}

func (s *fakeSubs) GetSubscriber(ctx context.Context, id string) (*domain.Subscriber, error) {
	return nil, nil
}
func (s *fakeSubs) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	return nil, nil
}
func (s *fakeSubs) ListNotifiable(ctx context.Context) ([]domain.Subscriber, error) {
	return s.notifiable, nil
}
func (s *fakeSubs) WatchEntries(ctx context.Context, subscriberID string) ([]domain.WatchEntry, error) {
	return s.entries[subscriberID], nil
}
func (s *fakeSubs) AllWatchEntries(ctx context.Context) ([]domain.WatchEntry, error) {
	return nil, nil
}
func (s *fakeSubs) SaveSubscriber(ctx context.Context, sub domain.Subscriber) error { return nil }
func (s *fakeSubs) AddWatchEntry(ctx context.Context, subscriberID string, entry domain.WatchEntry) error {
	return nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	saved []domain.Notification
}

func (n *fakeNotifications) SaveNotification(ctx context.Context, notif domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saved = append(n.saved, notif)
	return nil
}

func (n *fakeNotifications) ListNotifications(ctx context.Context, subscriberID string, limit int) ([]domain.Notification, error) {
	return n.saved, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (a *fakeAudit) Log(ctx context.Context, action domain.AuditAction, target, details string) error {
	return a.LogFor(ctx, "", action, target, details)
}

func (a *fakeAudit) LogFor(ctx context.Context, subscriberID string, action domain.AuditAction, target, details string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, domain.AuditLog{SubscriberID: subscriberID, Action: action})
	return nil
}

func (a *fakeAudit) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return a.entries, nil
}

type captureBroadcaster struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (b *captureBroadcaster) BroadcastNotification(n domain.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, n)
}

func critical(id string, vendors ...string) domain.VulnerabilityRecord {
	return domain.VulnerabilityRecord{
		ID:        id,
		Vendors:   vendors,
		CVSSScore: 9.8,
		Severity:  domain.SeverityCritical,
	}
}

func TestDispatch_NotifiesMatchingSubscriber(t *testing.T) {
	subs := &fakeSubs{
		notifiable: []domain.Subscriber{
			{ID: "sub-match", NotificationsEnabled: true},
			{ID: "sub-other", NotificationsEnabled: true},
		},
		entries: map[string][]domain.WatchEntry{
			"sub-match": {{Vendor: "microsoft", Product: "*"}},
			"sub-other": {{Vendor: "oracle", Product: "*"}},
		},
	}
	notifications := &fakeNotifications{}
	audit := &fakeAudit{}

	d := NewDispatcher(subs, notifications, audit)

	count, err := d.Dispatch(context.Background(), []domain.VulnerabilityRecord{
		critical("CVE-2024-1111", "microsoft"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, notifications.saved, 1)
	n := notifications.saved[0]
	assert.Equal(t, "sub-match", n.SubscriberID)
	assert.Equal(t, domain.NotificationTypeCriticalAlert, n.Type)
	assert.Equal(t, []string{"CVE-2024-1111"}, n.RecordIDs)
	assert.Equal(t, 1, n.Count)
	assert.False(t, n.Read)
	assert.NotEmpty(t, n.ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, domain.ActionAlert, audit.entries[0].Action)
	assert.Equal(t, "sub-match", audit.entries[0].SubscriberID)
}

func TestDispatch_OneNotificationForManyRecords(t *testing.T) {
	subs := &fakeSubs{
		notifiable: []domain.Subscriber{{ID: "sub-1", NotificationsEnabled: true}},
		entries: map[string][]domain.WatchEntry{
			"sub-1": {{Vendor: "apache", Product: "*"}},
		},
	}
	notifications := &fakeNotifications{}

	d := NewDispatcher(subs, notifications, &fakeAudit{})

	count, err := d.Dispatch(context.Background(), []domain.VulnerabilityRecord{
		critical("CVE-2024-2222", "apache"),
		critical("CVE-2024-3333", "apache"),
		critical("CVE-2024-4444", "oracle"), // no match
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, notifications.saved, 1)
	assert.Equal(t, []string{"CVE-2024-2222", "CVE-2024-3333"}, notifications.saved[0].RecordIDs)
	assert.Equal(t, 2, notifications.saved[0].Count)
}

func TestDispatch_SkipsEmptyWatchList(t *testing.T) {
	subs := &fakeSubs{
		notifiable: []domain.Subscriber{{ID: "sub-empty", NotificationsEnabled: true}},
		entries:    map[string][]domain.WatchEntry{},
	}
	notifications := &fakeNotifications{}

	d := NewDispatcher(subs, notifications, &fakeAudit{})

	count, err := d.Dispatch(context.Background(), []domain.VulnerabilityRecord{
		critical("CVE-2024-5555", "microsoft"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, notifications.saved)
}

func TestDispatch_NoCriticals(t *testing.T) {
	d := NewDispatcher(&fakeSubs{}, &fakeNotifications{}, &fakeAudit{})

	count, err := d.Dispatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDispatch_BroadcastsToHub(t *testing.T) {
	subs := &fakeSubs{
		notifiable: []domain.Subscriber{{ID: "sub-1", NotificationsEnabled: true}},
		entries: map[string][]domain.WatchEntry{
			"sub-1": {{Vendor: "cisco", Product: "*"}},
		},
	}
	hub := &captureBroadcaster{}

	d := NewDispatcher(subs, &fakeNotifications{}, &fakeAudit{})
	d.SetBroadcaster(hub)

	_, err := d.Dispatch(context.Background(), []domain.VulnerabilityRecord{
		critical("CVE-2024-6666", "cisco"),
	})
	require.NoError(t, err)

	require.Len(t, hub.sent, 1)
	assert.Equal(t, "sub-1", hub.sent[0].SubscriberID)
}
