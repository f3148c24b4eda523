package collect

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
)

// RepoResult is the outcome of processing one repository.
type RepoResult struct {
	Name     string
	Status   string
	Reason   string
	Versions int
	Duration time.Duration
	Err      error
}

// Summary aggregates the per-repository outcomes of one run.
type Summary struct {
	Project       string
	Results       []RepoResult
	ArtifactBytes int64
}

// Add appends one repository outcome.
func (s *Summary) Add(result RepoResult) {
	s.Results = append(s.Results, result)
}

// TotalVersions sums the versions collected across all repositories.
func (s *Summary) TotalVersions() int {
	total := 0

	for _, result := range s.Results {
		total += result.Versions
	}

	return total
}

// Failed reports whether any repository failed this run.
func (s *Summary) Failed() bool {
	for _, result := range s.Results {
		if result.Status == StatusFailed {
			return true
		}
	}

	return false
}

// Render writes a human-readable run report.
func (s *Summary) Render(w io.Writer) {
	tbl := prettytable.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(prettytable.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(prettytable.Row{"Repository", "Status", "Versions", "Duration"})

	for _, result := range s.Results {
		status := colorStatus(result.Status)
		if result.Reason != "" {
			status = fmt.Sprintf("%s (%s)", status, result.Reason)
		}

		tbl.AppendRow(prettytable.Row{
			result.Name,
			status,
			result.Versions,
			result.Duration.Round(time.Millisecond),
		})
	}

	tbl.AppendFooter(prettytable.Row{
		fmt.Sprintf("%d repositories", len(s.Results)),
		"",
		s.TotalVersions(),
		"",
	})

	tbl.Render()

	if s.ArtifactBytes > 0 {
		fmt.Fprintf(w, "artifacts for %s: %s\n", s.Project, humanize.Bytes(uint64(s.ArtifactBytes)))
	}
}

func colorStatus(status string) string {
	switch status {
	case StatusCollected:
		return color.GreenString(status)
	case StatusUpToDate:
		return color.CyanString(status)
	case StatusSkipped:
		return color.YellowString(status)
	case StatusFailed:
		return color.RedString(status)
	default:
		return status
	}
}
