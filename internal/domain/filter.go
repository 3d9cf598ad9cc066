package domain

import "strings"

// Filter selects the visible subset of a snapshot
type Filter struct {
	Query     string `json:"query"`
	GamesOnly bool   `json:"gamesOnly"`
}

// Matches reports whether the record passes the substring part of the filter.
// The match is case-insensitive against name and window title.
func (f Filter) Matches(p ProcessRecord) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.WindowTitle), q)
}

// Apply returns the records passing the filter in their original order.
// isGame is consulted only when GamesOnly is set; a nil predicate disables
// classification.
func (f Filter) Apply(records []ProcessRecord, isGame func(ProcessRecord) bool) []ProcessRecord {
	out := make([]ProcessRecord, 0, len(records))
	for _, p := range records {
		if !f.Matches(p) {
			continue
		}
		if f.GamesOnly && isGame != nil && !isGame(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SplitBySuspension partitions records into running and suspended lists,
// preserving order within each.
func SplitBySuspension(records []ProcessRecord) (active, suspended []ProcessRecord) {
	for _, p := range records {
		if p.IsSuspended {
			suspended = append(suspended, p)
		} else {
			active = append(active, p)
		}
	}
	return active, suspended
}
