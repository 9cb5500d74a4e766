package domain

import "time"

// FeedRecord is one vulnerability entry as returned by the NVD 2.0 API,
// in its raw (pre-extraction) shape. The service targets exactly this feed
// contract; no other source shapes are supported.
type FeedRecord struct {
	CVE CVEData `json:"cve"`

	// Configurations at the record's top level (current API shape).
	Configurations []FeedConfiguration `json:"configurations,omitempty"`
}

// CVEData is the nested "cve" object of a feed record.
type CVEData struct {
	ID           string          `json:"id"`
	VulnStatus   string          `json:"vulnStatus"`
	Published    string          `json:"published"`
	LastModified string          `json:"lastModified"`
	Descriptions []LangText      `json:"descriptions"`
	Metrics      *FeedMetrics    `json:"metrics,omitempty"`
	References   []FeedReference `json:"references,omitempty"`

	// Configurations nested under the cve key (older record shape).
	Configurations []FeedConfiguration `json:"configurations,omitempty"`
}

// LangText is a language-tagged text entry (descriptions).
type LangText struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// FeedReference is one reference link as reported by the feed.
type FeedReference struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// FeedConfiguration groups match nodes for affected configurations.
type FeedConfiguration struct {
	Nodes []FeedNode `json:"nodes"`
}

// FeedNode holds CPE match criteria.
type FeedNode struct {
	CPEMatch []CPEMatch `json:"cpeMatch"`
}

// CPEMatch carries a single colon-delimited CPE criteria string,
// e.g. "cpe:2.3:a:apache:http_server:2.4.0:*:*:*:*:*:*:*".
type CPEMatch struct {
	Vulnerable bool   `json:"vulnerable"`
	Criteria   string `json:"criteria"`
}

// FeedMetrics holds the CVSS metric blocks, newest scheme first.
type FeedMetrics struct {
	CVSSMetricV31 []CVSSMetricV3 `json:"cvssMetricV31,omitempty"`
	CVSSMetricV30 []CVSSMetricV3 `json:"cvssMetricV30,omitempty"`
	CVSSMetricV2  []CVSSMetricV2 `json:"cvssMetricV2,omitempty"`
}

// CVSSMetricV3 is a v3.x metric entry.
type CVSSMetricV3 struct {
	CVSSData CVSSDataV3 `json:"cvssData"`
}

// CVSSDataV3 carries score, categorical severity and vector for v3.x.
type CVSSDataV3 struct {
	VectorString string  `json:"vectorString"`
	BaseScore    float64 `json:"baseScore"`
	BaseSeverity string  `json:"baseSeverity"`
}

// CVSSMetricV2 is a v2 metric entry. v2 has no categorical severity;
// it is derived from the numeric score.
type CVSSMetricV2 struct {
	CVSSData CVSSDataV2 `json:"cvssData"`
}

// CVSSDataV2 carries score and vector for v2.
type CVSSDataV2 struct {
	VectorString string  `json:"vectorString"`
	BaseScore    float64 `json:"baseScore"`
}

// feedTimeLayouts are the timestamp shapes the feed has been observed to emit.
var feedTimeLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseFeedTime parses a feed timestamp, returning the zero time when the
// value is absent or malformed. Collection never fails on a bad timestamp.
func ParseFeedTime(s string) time.Time {
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
