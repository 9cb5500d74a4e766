package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

// NoDescription is stored when a record carries no English description.
const NoDescription = "No description available"

// cpeVendorField / cpeProductField are the positional fields of a
// colon-delimited CPE 2.3 criteria string
// ("cpe:2.3:a:vendor:product:version:...").
const (
	cpeVendorField  = 3
	cpeProductField = 4
)

// vendorPatterns is the fixed fallback table scanned against the English
// description when no structured match data yields a vendor. Word-boundary,
// case-insensitive. Products are never derivable from free text.
var vendorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(microsoft|ms)\b`),
	regexp.MustCompile(`(?i)\b(cisco|webex)\b`),
	regexp.MustCompile(`(?i)\b(apache|httpd)\b`),
	regexp.MustCompile(`(?i)\b(oracle|java|mysql)\b`),
	regexp.MustCompile(`(?i)\b(adobe|flash|acrobat)\b`),
	regexp.MustCompile(`(?i)\b(google|chrome|android)\b`),
	regexp.MustCompile(`(?i)\b(apple|ios|macos|safari)\b`),
	regexp.MustCompile(`(?i)\b(ibm|vmware|dell|hp|lenovo)\b`),
	regexp.MustCompile(`(?i)\b(linux|redhat|red hat|ubuntu|debian|centos)\b`),
	regexp.MustCompile(`(?i)\b(mozilla|firefox|thunderbird)\b`),
	regexp.MustCompile(`(?i)\b(nvidia|amd|intel)\b`),
	regexp.MustCompile(`(?i)\b(aws|amazon)\b`),
	regexp.MustCompile(`(?i)\b(sap|salesforce|servicenow)\b`),
}

// vendorAliases normalizes free-text matches to canonical vendor names.
var vendorAliases = map[string]string{
	"ms": "microsoft",
}

var whitespace = regexp.MustCompile(`\s+`)

// Identifiers derives the normalized vendor/product sets from a raw record.
// Strategies are tried in order, stopping at the first that yields a vendor:
// structured match data at the record's top level, the same data nested
// under the cve key (older shape), then the free-text description fallback.
// The returned slices are sorted and deduplicated; either may be empty.
func Identifiers(rec domain.FeedRecord) (vendors, products []string) {
	vendorSet := make(map[string]bool)
	productSet := make(map[string]bool)

	parseConfigurations(rec.Configurations, vendorSet, productSet)

	if len(vendorSet) == 0 {
		parseConfigurations(rec.CVE.Configurations, vendorSet, productSet)
	}

	if len(vendorSet) == 0 {
		scanDescription(EnglishDescription(rec), vendorSet)
	}

	return sortedKeys(vendorSet), sortedKeys(productSet)
}

// parseConfigurations walks configuration nodes and splits each CPE criteria
// string into positional fields. Wildcard fields are skipped; accepted
// values are lowercased.
func parseConfigurations(configs []domain.FeedConfiguration, vendors, products map[string]bool) {
	for _, cfg := range configs {
		for _, node := range cfg.Nodes {
			for _, match := range node.CPEMatch {
				if match.Criteria == "" {
					continue
				}
				parts := strings.Split(match.Criteria, ":")
				if len(parts) < cpeProductField+1 {
					continue
				}
				if v := parts[cpeVendorField]; v != "" && v != "*" {
					vendors[strings.ToLower(v)] = true
				}
				if p := parts[cpeProductField]; p != "" && p != "*" {
					products[strings.ToLower(p)] = true
				}
			}
		}
	}
}

// scanDescription applies the fallback vendor pattern table to the English
// description. Matches are lowercased, alias-normalized, and internal
// whitespace in multi-word names is replaced with underscores.
func scanDescription(desc string, vendors map[string]bool) {
	if desc == "" || desc == NoDescription {
		return
	}
	for _, pattern := range vendorPatterns {
		for _, m := range pattern.FindAllString(desc, -1) {
			normalized := strings.ToLower(strings.TrimSpace(m))
			if alias, ok := vendorAliases[normalized]; ok {
				normalized = alias
			}
			normalized = whitespace.ReplaceAllString(normalized, "_")
			vendors[normalized] = true
		}
	}
}

// SeverityInfo is the reconciled severity of a record.
type SeverityInfo struct {
	Score    float64
	Severity domain.Severity
	Vector   string
}

// Severity reconciles the record's CVSS metric blocks, preferring v3.1,
// then v3.0, then v2 (first entry of each). v2 severity is derived from
// the numeric score. This function never fails: any missing or malformed
// block degrades to {0.0, UNKNOWN, ""}.
func Severity(rec domain.FeedRecord) SeverityInfo {
	metrics := rec.CVE.Metrics
	if metrics == nil {
		return SeverityInfo{Severity: domain.SeverityUnknown}
	}

	if len(metrics.CVSSMetricV31) > 0 {
		return fromV3(metrics.CVSSMetricV31[0].CVSSData)
	}
	if len(metrics.CVSSMetricV30) > 0 {
		return fromV3(metrics.CVSSMetricV30[0].CVSSData)
	}
	if len(metrics.CVSSMetricV2) > 0 {
		data := metrics.CVSSMetricV2[0].CVSSData
		return SeverityInfo{
			Score:    data.BaseScore,
			Severity: domain.SeverityFromScore(data.BaseScore),
			Vector:   data.VectorString,
		}
	}

	return SeverityInfo{Severity: domain.SeverityUnknown}
}

func fromV3(data domain.CVSSDataV3) SeverityInfo {
	sev := domain.Severity(strings.ToUpper(data.BaseSeverity))
	if !sev.IsValid() {
		sev = domain.SeverityUnknown
	}
	return SeverityInfo{
		Score:    data.BaseScore,
		Severity: sev,
		Vector:   data.VectorString,
	}
}

// EnglishDescription returns the first English-language description entry,
// or a placeholder when absent.
func EnglishDescription(rec domain.FeedRecord) string {
	for _, d := range rec.CVE.Descriptions {
		if d.Lang == "en" {
			return d.Value
		}
	}
	return NoDescription
}

// Record assembles a canonical VulnerabilityRecord from a raw feed record.
// CollectedAt is left zero; the persistence layer stamps it on first write.
func Record(rec domain.FeedRecord) domain.VulnerabilityRecord {
	vendors, products := Identifiers(rec)
	sev := Severity(rec)

	refs := make([]domain.Reference, 0, len(rec.CVE.References))
	for _, r := range rec.CVE.References {
		refs = append(refs, domain.Reference{URL: r.URL, Source: r.Source})
	}

	return domain.VulnerabilityRecord{
		ID:             rec.CVE.ID,
		Description:    EnglishDescription(rec),
		Vendors:        vendors,
		Products:       products,
		CVSSScore:      sev.Score,
		Severity:       sev.Severity,
		CVSSVector:     sev.Vector,
		PublishedAt:    domain.ParseFeedTime(rec.CVE.Published),
		LastModifiedAt: domain.ParseFeedTime(rec.CVE.LastModified),
		References:     refs,
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
