// Package sprint maps timestamps to time-boxed iteration intervals.
package sprint

import (
	"sort"
	"time"
)

// NoSprint is the id returned when no interval contains the timestamp.
const NoSprint = -1

// Interval is one named, time-boxed iteration with fixed bounds.
type Interval struct {
	ID    int       `yaml:"id"`
	Name  string    `yaml:"name"`
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

// Schedule holds the immutable set of intervals for a run, sorted by start
// date. Intervals are conceptually disjoint but occasionally overlap in
// practice, which the right-biased search tolerates.
type Schedule struct {
	intervals []Interval
}

// NewSchedule creates a schedule from the given intervals. The input slice
// is copied and sorted by start date.
func NewSchedule(intervals []Interval) *Schedule {
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	return &Schedule{intervals: sorted}
}

// Len returns the number of intervals in the schedule.
func (s *Schedule) Len() int {
	return len(s.intervals)
}

// MatchTime returns the id of the interval containing the timestamp, or
// NoSprint when none does.
func (s *Schedule) MatchTime(ts time.Time) int {
	return s.match(ts, len(s.intervals), nil)
}

// MatchTimeIn behaves like MatchTime but only accepts intervals whose id is
// in the allow-list. A disallowed match retries over earlier-starting
// intervals only.
func (s *Schedule) MatchTimeIn(ts time.Time, allowed map[int]struct{}) int {
	return s.match(ts, len(s.intervals), allowed)
}

// match finds the rightmost interval below limit whose start is at or before
// ts. If ts is past that interval's end, or the interval is disallowed, the
// search walks back over earlier-starting intervals. Later intervals are
// never candidates: the right-biased search guarantees they start no earlier
// than ts.
func (s *Schedule) match(ts time.Time, limit int, allowed map[int]struct{}) int {
	idx := sort.Search(limit, func(i int) bool {
		return s.intervals[i].Start.After(ts)
	}) - 1

	for ; idx >= 0; idx-- {
		iv := s.intervals[idx]

		if ts.After(iv.End) {
			continue
		}

		if allowed != nil {
			if _, ok := allowed[iv.ID]; !ok {
				continue
			}
		}

		return iv.ID
	}

	return NoSprint
}
