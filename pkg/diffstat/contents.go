package diffstat

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// FromContents computes line-level change counts between two file contents.
// It is the fallback for adapters that can retrieve blob contents but no
// textual patch for a revision pair.
func FromContents(oldText, newText string) FileStats {
	dmp := diffmatchpatch.New()

	oldRunes, newRunes, lines := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(oldRunes, newRunes, false), lines)

	stats := FileStats{ChangeType: Modified}

	for _, d := range diffs {
		count := countLines(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stats.Insertions += count
		case diffmatchpatch.DiffDelete:
			stats.Deletions += count
		case diffmatchpatch.DiffEqual:
			// Unchanged context.
		}
	}

	return stats
}

func countLines(text string) int {
	if text == "" {
		return 0
	}

	count := 0

	for _, r := range text {
		if r == '\n' {
			count++
		}
	}

	if text[len(text)-1] != '\n' {
		count++
	}

	return count
}
