package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatchEntry(t *testing.T) {
	entry, err := NewWatchEntry("  Apache  ", "Tomcat")
	require.NoError(t, err)
	assert.Equal(t, "apache", entry.Vendor)
	assert.Equal(t, "tomcat", entry.Product)

	entry, err = NewWatchEntry("cisco", "")
	require.NoError(t, err)
	assert.Equal(t, WildcardProduct, entry.Product)
	assert.True(t, entry.IsWildcard())

	_, err = NewWatchEntry("   ", "tomcat")
	assert.ErrorIs(t, err, ErrEmptyVendor)
}

func TestVendorTerms(t *testing.T) {
	entries := []WatchEntry{
		{Vendor: "apache", Product: "tomcat"},
		{Vendor: "Apache", Product: "httpd"}, // same vendor, different case
		{Vendor: "cisco", Product: "*"},
		{Vendor: "*", Product: "*"}, // wildcard vendor is never a query term
		{Vendor: "  ", Product: "x"},
	}

	terms := VendorTerms(entries)

	assert.Equal(t, []string{"apache", "cisco"}, terms)
}

func TestParseFeedTime(t *testing.T) {
	cases := map[string]time.Time{
		"2024-05-01T10:30:00.000": time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		"2024-05-01T10:30:00":     time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		"2024-05-01T10:30:00Z":    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		"not a time":              {},
		"":                        {},
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseFeedTime(input), input)
	}
}

func TestSeverityFromScore(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityFromScore(9.0))
	assert.Equal(t, SeverityHigh, SeverityFromScore(7.5))
	assert.Equal(t, SeverityMedium, SeverityFromScore(4.0))
	assert.Equal(t, SeverityLow, SeverityFromScore(3.9))
}

func TestIsCritical(t *testing.T) {
	assert.True(t, VulnerabilityRecord{Severity: SeverityCritical}.IsCritical())
	assert.True(t, VulnerabilityRecord{Severity: SeverityUnknown, CVSSScore: 9.2}.IsCritical())
	assert.False(t, VulnerabilityRecord{Severity: SeverityHigh, CVSSScore: 8.9}.IsCritical())
}

func TestMatchQualityRank(t *testing.T) {
	assert.Greater(t, MatchExact.Rank(), MatchClose.Rank())
	assert.Greater(t, MatchClose.Rank(), MatchPossible.Rank())
	assert.Equal(t, 0, MatchQuality("BOGUS").Rank())
}

func TestNewAuditLog(t *testing.T) {
	log, err := NewAuditLog("sub-1", ActionCollection, "feed", "new=3")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", log.SubscriberID)
	assert.False(t, log.Timestamp.IsZero())

	_, err = NewAuditLog("", AuditAction("NOPE"), "t", "d")
	assert.ErrorIs(t, err, ErrInvalidAction)
}
