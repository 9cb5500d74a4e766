package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

type fakeRecordRepo struct {
	recent []domain.VulnerabilityRecord
}

func (r *fakeRecordRepo) Exists(ctx context.Context, id string) (bool, error) { return false, nil }
func (r *fakeRecordRepo) CreateIfAbsent(ctx context.Context, rec domain.VulnerabilityRecord) (bool, error) {
	return false, nil
}
func (r *fakeRecordRepo) UpdateExtraction(ctx context.Context, id string, vendors, products []string) (bool, error) {
	return false, nil
}
func (r *fakeRecordRepo) GetByID(ctx context.Context, id string) (*domain.VulnerabilityRecord, error) {
	return nil, nil
}
func (r *fakeRecordRepo) ListRecent(ctx context.Context, limit int) ([]domain.VulnerabilityRecord, error) {
	if limit < len(r.recent) {
		return r.recent[:limit], nil
	}
	return r.recent, nil
}
func (r *fakeRecordRepo) CountAll(ctx context.Context) (int, error) { return len(r.recent), nil }
func (r *fakeRecordRepo) Close() error                              { return nil }

type fakeSubRepo struct {
	entries map[string][]domain.WatchEntry
}

func (s *fakeSubRepo) GetSubscriber(ctx context.Context, id string) (*domain.Subscriber, error) {
	return nil, nil
}
func (s *fakeSubRepo) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	return nil, nil
}
func (s *fakeSubRepo) ListNotifiable(ctx context.Context) ([]domain.Subscriber, error) {
	return nil, nil
}
func (s *fakeSubRepo) WatchEntries(ctx context.Context, subscriberID string) ([]domain.WatchEntry, error) {
	return s.entries[subscriberID], nil
}
func (s *fakeSubRepo) AllWatchEntries(ctx context.Context) ([]domain.WatchEntry, error) {
	return nil, nil
}
func (s *fakeSubRepo) SaveSubscriber(ctx context.Context, sub domain.Subscriber) error { return nil }
func (s *fakeSubRepo) AddWatchEntry(ctx context.Context, subscriberID string, entry domain.WatchEntry) error {
	return nil
}

type recordsResponse struct {
	Records []struct {
		ID           string `json:"cve_id"`
		MatchQuality string `json:"matchQuality"`
	} `json:"records"`
	Count int `json:"count"`
}

func listRecords(t *testing.T, h *RecordsHandler, url string) (recordsResponse, int) {
	t.Helper()
	req := authenticated(httptest.NewRequest(http.MethodGet, url, nil))
	rr := httptest.NewRecorder()
	h.HandleList(rr, req)

	var resp recordsResponse
	if rr.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	}
	return resp, rr.Code
}

func TestHandleListRecords_AnnotatesMatches(t *testing.T) {
	records := &fakeRecordRepo{recent: []domain.VulnerabilityRecord{
		{ID: "CVE-2024-0001", Vendors: []string{"apache"}, Products: []string{"tomcat"}},
		{ID: "CVE-2024-0002", Vendors: []string{"oracle"}, Products: []string{"mysql"}},
	}}
	subs := &fakeSubRepo{entries: map[string][]domain.WatchEntry{
		"sub-1": {{Vendor: "apache", Product: "*"}},
	}}
	h := NewRecordsHandler(records, subs)

	resp, code := listRecords(t, h, "/api/records")
	require.Equal(t, http.StatusOK, code)

	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "CVE-2024-0001", resp.Records[0].ID)
	assert.Equal(t, string(domain.MatchExact), resp.Records[0].MatchQuality)
	assert.Empty(t, resp.Records[1].MatchQuality)
}

func TestHandleListRecords_QualityFilter(t *testing.T) {
	records := &fakeRecordRepo{recent: []domain.VulnerabilityRecord{
		{ID: "CVE-2024-0001", Vendors: []string{"apache"}, Products: []string{"tomcat"}},
		{ID: "CVE-2024-0002", Vendors: []string{"apache_foundation"}, Products: []string{"tomcat_server"}},
		{ID: "CVE-2024-0003", Vendors: []string{"oracle"}, Products: []string{"mysql"}},
	}}
	subs := &fakeSubRepo{entries: map[string][]domain.WatchEntry{
		"sub-1": {{Vendor: "apache", Product: "tomcat"}},
	}}
	h := NewRecordsHandler(records, subs)

	// exact keeps only the string-equal match
	resp, code := listRecords(t, h, "/api/records?quality=exact")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "CVE-2024-0001", resp.Records[0].ID)

	// possible keeps every matching tier, unmatched records drop out
	resp, code = listRecords(t, h, "/api/records?quality=possible")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, resp.Count)
}

func TestHandleListRecords_InvalidQuality(t *testing.T) {
	h := NewRecordsHandler(&fakeRecordRepo{}, &fakeSubRepo{})

	_, code := listRecords(t, h, "/api/records?quality=bogus")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandleListRecords_LimitParam(t *testing.T) {
	records := &fakeRecordRepo{recent: []domain.VulnerabilityRecord{
		{ID: "CVE-2024-0001"}, {ID: "CVE-2024-0002"}, {ID: "CVE-2024-0003"},
	}}
	h := NewRecordsHandler(records, &fakeSubRepo{})

	resp, code := listRecords(t, h, "/api/records?limit=2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, resp.Count)
}

func TestHandleListRecords_Unauthenticated(t *testing.T) {
	h := NewRecordsHandler(&fakeRecordRepo{}, &fakeSubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rr := httptest.NewRecorder()
	h.HandleList(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
