// Package session defines session records, the descriptor codec, and the
// ordering and aggregation rules applied to the live session set.
package session

import (
	"fmt"
	"slices"
	"strings"
)

// Status is the coarse activity state a worker reports in its descriptor.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusBusy         Status = "busy"
	StatusWaiting      Status = "waiting"
	StatusInterrupted  Status = "interrupted"
	StatusDisconnected Status = "disconnected"
)

// DefaultPriority is the aggregate display order used when none is configured.
var DefaultPriority = []Status{
	StatusBusy,
	StatusWaiting,
	StatusIdle,
	StatusInterrupted,
	StatusDisconnected,
}

// KnownStatuses returns every status name glance knows how to present.
func KnownStatuses() []Status {
	return slices.Clone(DefaultPriority)
}

// IsKnown reports whether s is one of the statuses glance can present.
func (s Status) IsKnown() bool {
	return slices.Contains(DefaultPriority, s)
}

// Label returns the human-readable form of the status.
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// StatusSet is the set of statuses accepted from descriptors, in aggregate
// priority order. A status missing from the set is treated as unknown and
// records carrying it are dropped.
type StatusSet struct {
	order []Status
	rank  map[Status]int
}

// NewStatusSet builds a StatusSet from names in priority order.
func NewStatusSet(names []string) (*StatusSet, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("status set cannot be empty")
	}

	set := &StatusSet{
		order: make([]Status, 0, len(names)),
		rank:  make(map[Status]int, len(names)),
	}
	for _, name := range names {
		st := Status(strings.ToLower(strings.TrimSpace(name)))
		if !st.IsKnown() {
			return nil, fmt.Errorf("unknown status %q (known: %v)", name, DefaultPriority)
		}
		if _, dup := set.rank[st]; dup {
			return nil, fmt.Errorf("duplicate status %q", name)
		}
		set.rank[st] = len(set.order)
		set.order = append(set.order, st)
	}
	return set, nil
}

// DefaultStatusSet returns the set of all known statuses in DefaultPriority order.
func DefaultStatusSet() *StatusSet {
	names := make([]string, len(DefaultPriority))
	for i, st := range DefaultPriority {
		names[i] = string(st)
	}
	set, _ := NewStatusSet(names)
	return set
}

// Parse maps a raw descriptor value to a Status. Matching is exact.
func (s *StatusSet) Parse(raw string) (Status, bool) {
	st := Status(raw)
	if _, ok := s.rank[st]; !ok {
		return "", false
	}
	return st, true
}

// Contains reports whether st is part of the set.
func (s *StatusSet) Contains(st Status) bool {
	_, ok := s.rank[st]
	return ok
}

// Priority returns the statuses in aggregate display order.
func (s *StatusSet) Priority() []Status {
	return slices.Clone(s.order)
}

// Names returns the statuses as plain strings, in priority order.
func (s *StatusSet) Names() []string {
	out := make([]string, len(s.order))
	for i, st := range s.order {
		out[i] = string(st)
	}
	return out
}
