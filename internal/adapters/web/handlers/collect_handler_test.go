package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvewatch/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
)

type fakeCollector struct {
	collectDays    int
	collectSubID   string
	backfillMonths int
	result         ports.CollectResult
	backfillResult ports.BackfillResult
	reprocessed    int
}

func (c *fakeCollector) Collect(ctx context.Context, windowDays, offsetDays int, subscriberID string) (ports.CollectResult, error) {
	c.collectDays = windowDays
	c.collectSubID = subscriberID
	return c.result, nil
}

func (c *fakeCollector) Backfill(ctx context.Context, months int, subscriberID string) (ports.BackfillResult, error) {
	c.backfillMonths = months
	return c.backfillResult, nil
}

func (c *fakeCollector) Reprocess(ctx context.Context) (int, error) {
	return c.reprocessed, nil
}

type fakeDispatcher struct {
	dispatched []domain.VulnerabilityRecord
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, critical []domain.VulnerabilityRecord) (int, error) {
	d.dispatched = append(d.dispatched, critical...)
	return len(critical), nil
}

func authenticated(req *http.Request) *http.Request {
	sub := &domain.Subscriber{ID: "sub-1"}
	ctx := context.WithValue(req.Context(), middleware.SubscriberContextKey, sub)
	return req.WithContext(ctx)
}

func TestHandleCollect_Defaults(t *testing.T) {
	collector := &fakeCollector{result: ports.CollectResult{NewCount: 3, DaysCollected: 30}}
	h := NewCollectHandler(collector, &fakeDispatcher{})

	// Empty body falls back to the default window.
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/collect", nil))
	rr := httptest.NewRecorder()

	h.HandleCollect(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 30, collector.collectDays)
	assert.Equal(t, "sub-1", collector.collectSubID)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, float64(3), resp["newCount"])
}

func TestHandleCollect_ClampsDaysBack(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{`{"daysBack": 7}`, 7},
		{`{"daysBack": 500}`, 120},
		{`{"daysBack": -5}`, 0},
		{`{"daysBack": 0}`, 0},
	}

	for _, tc := range cases {
		collector := &fakeCollector{}
		h := NewCollectHandler(collector, &fakeDispatcher{})

		req := authenticated(httptest.NewRequest(http.MethodPost, "/api/collect", strings.NewReader(tc.body)))
		rr := httptest.NewRecorder()

		h.HandleCollect(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, tc.body)
		assert.Equal(t, tc.want, collector.collectDays, tc.body)
	}
}

func TestHandleCollect_MalformedBody(t *testing.T) {
	h := NewCollectHandler(&fakeCollector{}, &fakeDispatcher{})

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/collect", strings.NewReader("{not json")))
	rr := httptest.NewRecorder()

	h.HandleCollect(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleCollect_DispatchesCriticals(t *testing.T) {
	criticals := []domain.VulnerabilityRecord{{ID: "CVE-2024-0001", Severity: domain.SeverityCritical}}
	collector := &fakeCollector{result: ports.CollectResult{
		NewCount:        1,
		CriticalCount:   1,
		CriticalRecords: criticals,
	}}
	dispatcher := &fakeDispatcher{}
	h := NewCollectHandler(collector, dispatcher)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/collect", nil))
	rr := httptest.NewRecorder()

	h.HandleCollect(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "CVE-2024-0001", dispatcher.dispatched[0].ID)
}

func TestHandleCollect_Unauthenticated(t *testing.T) {
	h := NewCollectHandler(&fakeCollector{}, &fakeDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/collect", nil)
	rr := httptest.NewRecorder()

	h.HandleCollect(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleBackfill_ValidatesMonths(t *testing.T) {
	for _, body := range []string{`{"months": 0}`, `{"months": 25}`, `{}`} {
		h := NewCollectHandler(&fakeCollector{}, &fakeDispatcher{})

		req := authenticated(httptest.NewRequest(http.MethodPost, "/api/backfill", strings.NewReader(body)))
		rr := httptest.NewRecorder()

		h.HandleBackfill(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestHandleBackfill_Succeeds(t *testing.T) {
	collector := &fakeCollector{backfillResult: ports.BackfillResult{
		TotalNewCount:   42,
		MonthsLoaded:    6,
		ChunksProcessed: 2,
	}}
	h := NewCollectHandler(collector, &fakeDispatcher{})

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/backfill", strings.NewReader(`{"months": 6}`)))
	rr := httptest.NewRecorder()

	h.HandleBackfill(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 6, collector.backfillMonths)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, float64(42), resp["totalNewCount"])
	assert.Equal(t, float64(2), resp["chunksProcessed"])
}

func TestHandleReprocess(t *testing.T) {
	h := NewCollectHandler(&fakeCollector{reprocessed: 17}, &fakeDispatcher{})

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/reprocess", nil))
	rr := httptest.NewRecorder()

	h.HandleReprocess(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, float64(17), resp["updated"])
}
