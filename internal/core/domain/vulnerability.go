package domain

import "time"

// Severity is the categorical CVSS severity of a vulnerability record.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityUnknown  Severity = "UNKNOWN"
)

// IsValid checks if the severity is a recognized level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityUnknown:
		return true
	}
	return false
}

// SeverityFromScore derives a categorical severity from a numeric CVSS score.
// Used for CVSS v2 metric blocks, which carry no categorical severity.
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Reference is one advisory/patch link attached to a record.
type Reference struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// VulnerabilityRecord is the canonical stored entity, one per external
// feed identifier (e.g. "CVE-2024-12345").
//
// Core fields are written exactly once at collection time. Only Vendors,
// Products and ReprocessedAt may be overwritten afterwards, by a
// reprocessing pass; CollectedAt is never touched again.
type VulnerabilityRecord struct {
	ID          string `json:"cve_id"`
	Description string `json:"description"`

	// Extracted identifier sets, lowercase, order irrelevant. May be empty.
	Vendors  []string `json:"vendors"`
	Products []string `json:"products"`

	CVSSScore  float64  `json:"cvss_score"` // 0.0 when unknown
	Severity   Severity `json:"severity"`
	CVSSVector string   `json:"cvss_vector,omitempty"`

	PublishedAt    time.Time `json:"published_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`

	References []Reference `json:"references,omitempty"`

	CollectedAt   time.Time  `json:"collected_at"`
	ReprocessedAt *time.Time `json:"reprocessed_at,omitempty"`
}

// IsCritical reports whether the record qualifies for alerting.
// Both conditions are checked independently: an UNKNOWN severity with an
// unexpectedly high score still qualifies.
func (r VulnerabilityRecord) IsCritical() bool {
	return r.Severity == SeverityCritical || r.CVSSScore >= 9.0
}
