package domain

// MatchQuality grades how closely a record matches a watch entry.
type MatchQuality string

const (
	MatchExact    MatchQuality = "EXACT"
	MatchClose    MatchQuality = "CLOSE"
	MatchPossible MatchQuality = "POSSIBLE"
)

// Rank orders qualities for best-match selection (higher is better).
func (q MatchQuality) Rank() int {
	switch q {
	case MatchExact:
		return 3
	case MatchClose:
		return 2
	case MatchPossible:
		return 1
	}
	return 0
}

// MatchResult is the outcome of matching one record against a watch list.
// It is derived, recomputed on every pass, and never persisted on its own —
// only notification records embed the matched ids.
type MatchResult struct {
	Quality MatchQuality `json:"quality"`
	Entry   WatchEntry   `json:"matched_entry"`
}
