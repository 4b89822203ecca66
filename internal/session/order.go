package session

import (
	"slices"
	"strings"
)

// Compare orders records by display name, then by id.
func Compare(a, b Record) int {
	if c := strings.Compare(a.DisplayName(), b.DisplayName()); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// SortRecords sorts recs in place into live-set order.
func SortRecords(recs []Record) {
	slices.SortFunc(recs, Compare)
}

// StatusCount is one entry of a status aggregate.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// Aggregate counts records per status. Entries follow priority order and
// statuses with no records are omitted.
func Aggregate(recs []Record, priority []Status) []StatusCount {
	counts := make(map[Status]int, len(priority))
	for _, r := range recs {
		counts[r.Status]++
	}

	out := make([]StatusCount, 0, len(priority))
	for _, st := range priority {
		if n := counts[st]; n > 0 {
			out = append(out, StatusCount{Status: st, Count: n})
		}
	}
	return out
}

// Headline is the single status used for a compact indicator: the highest
// priority status present, or disconnected when there are no sessions.
func Headline(counts []StatusCount) Status {
	if len(counts) == 0 {
		return StatusDisconnected
	}
	return counts[0].Status
}
