package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyVendor   = errors.New("watch entry vendor cannot be empty")
	ErrEmptyEmail    = errors.New("subscriber email cannot be empty")
	ErrNoSuchRecord  = errors.New("vulnerability record not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// WildcardProduct marks a watch entry covering any product of its vendor.
const WildcardProduct = "*"

// WatchEntry is a subscriber's declared interest in a vendor, optionally
// scoped to one product. Both fields are lowercase and trimmed; a product
// of "*" means "any product for this vendor".
type WatchEntry struct {
	Vendor  string `json:"vendor"`
	Product string `json:"product"`
}

// NewWatchEntry normalizes and validates a watch entry. An empty product
// is treated as the wildcard.
func NewWatchEntry(vendor, product string) (WatchEntry, error) {
	vendor = strings.ToLower(strings.TrimSpace(vendor))
	product = strings.ToLower(strings.TrimSpace(product))
	if vendor == "" {
		return WatchEntry{}, ErrEmptyVendor
	}
	if product == "" {
		product = WildcardProduct
	}
	return WatchEntry{Vendor: vendor, Product: product}, nil
}

// IsWildcard reports whether the entry covers any product of its vendor.
func (w WatchEntry) IsWildcard() bool {
	return w.Product == "" || w.Product == WildcardProduct
}

// Subscriber owns a watch list and receives critical-record alerts.
type Subscriber struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	APIKeyHash           string    `json:"-"` // bcrypt hash, never exposed
	CreatedAt            time.Time `json:"created_at"`
}

// VendorTerms collapses watch entries to the set of distinct, non-wildcard
// vendor terms used to drive per-vendor feed queries. The returned slice is
// a read-only snapshot; order follows first appearance.
func VendorTerms(entries []WatchEntry) []string {
	seen := make(map[string]bool, len(entries))
	var terms []string
	for _, e := range entries {
		v := strings.ToLower(strings.TrimSpace(e.Vendor))
		if v == "" || v == WildcardProduct {
			continue
		}
		if !seen[v] {
			seen[v] = true
			terms = append(terms, v)
		}
	}
	return terms
}
