package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

// FeedClient retrieves raw vulnerability records from the external feed.
type FeedClient interface {
	// FetchWindow retrieves every record published inside [start, end),
	// transparently paginating. A failure on the first page is returned;
	// failures on later pages are logged and skipped, so partial results
	// are possible.
	FetchWindow(ctx context.Context, start, end time.Time) ([]domain.FeedRecord, error)

	// FetchByVendor retrieves a single page of records published inside
	// [start, end) whose text matches the vendor keyword. Failures are
	// logged and yield an empty slice: one vendor's outage must never
	// abort a collection run.
	FetchByVendor(ctx context.Context, start, end time.Time, vendor string) []domain.FeedRecord
}
