package match

import (
	"strings"

	"github.com/lcalzada-xor/cvewatch/internal/core/domain"
)

// Quality matches a record's vendor/product sets against a subscriber's
// watch entries and returns the best match found, or nil when nothing
// qualifies. Pure and deterministic with respect to entry iteration order;
// callers must not depend on which entry wins an equal-quality tie.
//
// The same function serves both call sites: alert fan-out at collection
// time and dashboard filtering at query time.
func Quality(rec domain.VulnerabilityRecord, entries []domain.WatchEntry) *domain.MatchResult {
	var best *domain.MatchResult

	for _, entry := range entries {
		vendorTerm := strings.ToLower(strings.TrimSpace(entry.Vendor))
		productTerm := strings.ToLower(strings.TrimSpace(entry.Product))
		if vendorTerm == "" {
			continue
		}

		matchedVendor, ok := findMatch(rec.Vendors, vendorTerm)
		if !ok {
			continue
		}
		vendorExact := matchedVendor == vendorTerm

		var quality domain.MatchQuality
		if entry.IsWildcard() {
			// Wildcard product: exact vendor is an exact match, a
			// partial vendor only a possible one.
			quality = domain.MatchPossible
			if vendorExact {
				quality = domain.MatchExact
			}
		} else {
			matchedProduct, ok := findMatch(rec.Products, productTerm)
			if !ok {
				continue
			}
			productExact := matchedProduct == productTerm

			switch {
			case vendorExact && productExact:
				quality = domain.MatchExact
			case vendorExact || productExact:
				quality = domain.MatchClose
			default:
				quality = domain.MatchPossible
			}
		}

		if best == nil || quality.Rank() > best.Quality.Rank() {
			best = &domain.MatchResult{Quality: quality, Entry: entry}
		}
		if quality == domain.MatchExact {
			break
		}
	}

	return best
}

// findMatch returns the first value in the set matching the term under the
// bidirectional-substring rule, plus underscore/space normalization
// equivalence. The rule tolerates false positives: vendor "sun" also
// matches "solarsun".
func findMatch(values []string, term string) (string, bool) {
	for _, raw := range values {
		v := strings.ToLower(raw)
		if v == term ||
			strings.Contains(v, term) ||
			strings.Contains(term, v) ||
			strings.ReplaceAll(v, "_", " ") == term ||
			strings.ReplaceAll(v, "_", "") == strings.ReplaceAll(term, "_", "") {
			return v, true
		}
	}
	return "", false
}
