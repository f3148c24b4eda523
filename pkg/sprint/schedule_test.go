package sprint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testSchedule() *Schedule {
	return NewSchedule([]Interval{
		{ID: 1, Name: "Sprint 1", Start: day(1), End: day(14)},
		{ID: 2, Name: "Sprint 2", Start: day(14), End: day(28)},
	})
}

func TestMatchTime_AdjacentBoundary(t *testing.T) {
	t.Parallel()

	s := testSchedule()

	// Exactly at the shared boundary resolves to the later interval.
	assert.Equal(t, 2, s.MatchTime(day(14)))
	assert.Equal(t, 1, s.MatchTime(day(13)))
	assert.Equal(t, 2, s.MatchTime(day(20)))
}

func TestMatchTime_BeforeAllIntervals(t *testing.T) {
	t.Parallel()

	s := testSchedule()

	assert.Equal(t, NoSprint, s.MatchTime(day(1).Add(-time.Hour)))
}

func TestMatchTime_AfterAllIntervals(t *testing.T) {
	t.Parallel()

	s := testSchedule()

	assert.Equal(t, NoSprint, s.MatchTime(day(30)))
}

func TestMatchTime_Gap(t *testing.T) {
	t.Parallel()

	s := NewSchedule([]Interval{
		{ID: 1, Start: day(1), End: day(5)},
		{ID: 2, Start: day(10), End: day(15)},
	})

	// In the gap: interval 2 starts later than the timestamp, interval 1
	// already ended. No match.
	assert.Equal(t, NoSprint, s.MatchTime(day(7)))
}

func TestMatchTime_OverlappingIntervals(t *testing.T) {
	t.Parallel()

	s := NewSchedule([]Interval{
		{ID: 1, Start: day(1), End: day(20)},
		{ID: 2, Start: day(10), End: day(12)},
	})

	// Rightmost start wins, then walk-back when past its end.
	assert.Equal(t, 2, s.MatchTime(day(11)))
	assert.Equal(t, 1, s.MatchTime(day(15)))
}

func TestMatchTimeIn_AllowList(t *testing.T) {
	t.Parallel()

	s := NewSchedule([]Interval{
		{ID: 1, Start: day(1), End: day(20)},
		{ID: 2, Start: day(10), End: day(20)},
	})

	allowed := map[int]struct{}{1: {}}

	// Interval 2 matches first but is disallowed; the search retries over
	// earlier-starting intervals.
	assert.Equal(t, 1, s.MatchTimeIn(day(15), allowed))
	assert.Equal(t, NoSprint, s.MatchTimeIn(day(15), map[int]struct{}{}))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	content := `sprints:
  - id: 1
    name: Sprint 1
    start: 2024-01-01T00:00:00Z
    end: 2024-01-14T00:00:00Z
  - id: 2
    name: Sprint 2
    start: 2024-01-14T00:00:00Z
    end: 2024-01-28T00:00:00Z
`

	path := filepath.Join(t.TempDir(), "sprints.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.MatchTime(day(14)))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

	assert.Error(t, err)
}
