// Package nvd implements the feed client against the NVD CVE API 2.0.
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
	"github.com/lcalzada-xor/cvewatch/internal/core/ports"
	"github.com/lcalzada-xor/cvewatch/internal/telemetry"
)

const (
	// DefaultBaseURL is the production NVD 2.0 endpoint.
	DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

	// DefaultPageSize is the feed's maximum page size.
	DefaultPageSize = 2000

	// DefaultRequestInterval is the minimum gap between any two feed
	// requests. The public feed enforces roughly this rate for unkeyed
	// clients; the limiter is shared across all fetch paths so vendor
	// queries and pagination draw from the same budget.
	DefaultRequestInterval = 6 * time.Second

	// timeFormat is the feed's query timestamp format: ISO-8601 UTC with
	// second precision and a literal trailing Z.
	timeFormat = "2006-01-02T15:04:05Z"
)

// feedResponse is one page of the feed.
type feedResponse struct {
	TotalResults    int                 `json:"totalResults"`
	ResultsPerPage  int                 `json:"resultsPerPage"`
	StartIndex      int                 `json:"startIndex"`
	Vulnerabilities []domain.FeedRecord `json:"vulnerabilities"`
}

// Client is a rate-limited, paginating feed client. Safe for concurrent
// use; the limiter serializes outbound requests.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithPageSize overrides the page size (tests exercising pagination).
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithRequestInterval overrides the inter-request delay (tests).
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a feed client with production defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		pageSize: DefaultPageSize,
		http: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRequestInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchWindow retrieves every record published inside [start, end),
// paginating at the configured page size. A failure fetching the first
// page aborts the whole fetch; failures on later pages are logged and
// that page is skipped, so the result may be partial.
func (c *Client) FetchWindow(ctx context.Context, start, end time.Time) ([]domain.FeedRecord, error) {
	var all []domain.FeedRecord

	startIndex := 0
	total := -1
	page := 0

	for total < 0 || startIndex < total {
		resp, err := c.fetchPage(ctx, start, end, "", startIndex)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("fetching first page: %w", err)
			}
			slog.Error("skipping feed page after failure",
				"start_index", startIndex, "err", err)
			startIndex += c.pageSize
			page++
			continue
		}

		total = resp.TotalResults
		all = append(all, resp.Vulnerabilities...)

		slog.Info("feed page fetched",
			"start_index", startIndex, "records", len(resp.Vulnerabilities), "total", total)

		startIndex += c.pageSize
		page++
	}

	return all, nil
}

// FetchByVendor retrieves a single page of records published inside
// [start, end) whose text matches the vendor keyword. All failures are
// logged and yield an empty slice.
func (c *Client) FetchByVendor(ctx context.Context, start, end time.Time, vendor string) []domain.FeedRecord {
	resp, err := c.fetchPage(ctx, start, end, vendor, 0)
	if err != nil {
		slog.Error("vendor feed query failed", "vendor", vendor, "err", err)
		return nil
	}
	return resp.Vulnerabilities
}

// fetchPage issues one rate-limited request. keyword is optional.
func (c *Client) fetchPage(ctx context.Context, start, end time.Time, keyword string, startIndex int) (*feedResponse, error) {
	kind := "window"
	if keyword != "" {
		kind = "vendor"
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("pubStartDate", start.UTC().Format(timeFormat))
	q.Set("pubEndDate", end.UTC().Format(timeFormat))
	q.Set("resultsPerPage", strconv.Itoa(c.pageSize))
	q.Set("startIndex", strconv.Itoa(startIndex))
	if keyword != "" {
		q.Set("keywordSearch", keyword)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	telemetry.FeedRequests.WithLabelValues(kind).Inc()

	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.FeedFailures.WithLabelValues(kind, "transport").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		telemetry.FeedFailures.WithLabelValues(kind, "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	var page feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		telemetry.FeedFailures.WithLabelValues(kind, "decode").Inc()
		return nil, fmt.Errorf("decoding feed response: %w", err)
	}

	return &page, nil
}

var _ ports.FeedClient = (*Client)(nil)
