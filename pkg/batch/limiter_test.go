package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Defaults(t *testing.T) {
	t.Parallel()

	l := NewLimiter(0, 0)

	assert.Equal(t, DefaultSize, l.Size())
	assert.Equal(t, 0, l.Skip())
}

func TestLimiter_CheckFalseWithoutResults(t *testing.T) {
	t.Parallel()

	l := NewLimiter(100, 1000)

	assert.False(t, l.Check(false))
	assert.True(t, l.Check(true))
}

func TestLimiter_TotalNeverExceedsMaximum(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		size    int
		maximum int
	}{
		{name: "even", size: 100, maximum: 1000},
		{name: "uneven", size: 300, maximum: 1000},
		{name: "single", size: 1000, maximum: 1000},
		{name: "oversized", size: 700, maximum: 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l := NewLimiter(tc.size, tc.maximum)

			total := 0
			for l.Check(true) {
				total += l.Size()
				l.Update()
			}

			assert.LessOrEqual(t, total, tc.maximum)
		})
	}
}

func TestLimiter_ShrinksFinalBatch(t *testing.T) {
	t.Parallel()

	l := NewLimiter(300, 1000)

	require.True(t, l.Check(true))
	l.Update()
	l.Update()
	l.Update()

	// 900 requested so far; only 100 remain under the cap.
	assert.Equal(t, 100, l.Size())

	l.Update()

	assert.False(t, l.Check(true))
}

func TestLimiter_Page(t *testing.T) {
	t.Parallel()

	l := NewLimiter(50, 500)

	assert.Equal(t, 1, l.Page())

	l.Update()

	assert.Equal(t, 2, l.Page())
}
