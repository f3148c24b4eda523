// Package diffstat turns raw textual diffs into structured change records.
package diffstat

import (
	"strings"
)

// ChangeType classifies how a file changed within a diff.
type ChangeType string

// Recognized change types.
const (
	// Modified means the file existed on both sides of the diff.
	Modified ChangeType = "modified"
	// Added means the old side of the file does not exist.
	Added ChangeType = "added"
	// Deleted means the new side of the file does not exist.
	Deleted ChangeType = "deleted"
	// Replaced means the file was moved or renamed.
	Replaced ChangeType = "replaced"
)

// Stats aggregates change counts over a whole multi-file diff.
type Stats struct {
	Insertions    int
	Deletions     int
	NumberOfFiles int
	NumberOfLines int
	Size          int
}

// FileStats holds the change counts for one file section of a diff.
type FileStats struct {
	Path       string
	ChangeType ChangeType
	Insertions int
	Deletions  int
}

// Zero returns an all-zero aggregate. Adapters return it when the underlying
// diff command fails, so missing statistics never block version collection.
func Zero() Stats {
	return Stats{}
}

// AddFile merges one file's counts into the aggregate. Adapters use it to
// fold content-pair fallback results into a parsed aggregate; the fallback
// carries no byte size, so Size is left untouched.
func (s *Stats) AddFile(fs FileStats) {
	s.NumberOfFiles++
	s.Insertions += fs.Insertions
	s.Deletions += fs.Deletions
	s.NumberOfLines = s.Insertions + s.Deletions
}

// Diff section markers.
const (
	sectionPrefix    = "diff --git "
	indexPrefix      = "Index: "
	hunkPrefix       = "@@"
	oldHeaderPrefix  = "--- "
	newHeaderPrefix  = "+++ "
	renameFromPrefix = "rename from "
	devNull          = "/dev/null"
)

// fileAccumulator collects counts for the active file section.
type fileAccumulator struct {
	stats   FileStats
	started bool
	inHunk  bool
}

// parser is the line-oriented diff state machine. It keeps one active file
// accumulator; a new file section flushes the previous one.
type parser struct {
	total Stats
	files []FileStats
	cur   fileAccumulator
}

// Parse parses a multi-file textual diff into aggregate and per-file change
// counts. Malformed or binary sections contribute zero; Parse never fails.
func Parse(text string) (Stats, []FileStats) {
	p := &parser{}

	for line := range strings.Lines(text) {
		p.processLine(strings.TrimSuffix(line, "\n"))
	}

	p.flush()
	p.total.NumberOfLines = p.total.Insertions + p.total.Deletions

	return p.total, p.files
}

// flush finishes the active file accumulator, if any.
func (p *parser) flush() {
	if !p.cur.started {
		return
	}

	p.files = append(p.files, p.cur.stats)
	p.total.NumberOfFiles++
	p.total.Insertions += p.cur.stats.Insertions
	p.total.Deletions += p.cur.stats.Deletions
	p.cur = fileAccumulator{}
}

// start opens a new file section, defaulting the change type to modified.
func (p *parser) start(path string) {
	p.flush()
	p.cur = fileAccumulator{
		started: true,
		stats:   FileStats{Path: path, ChangeType: Modified},
	}
}

func (p *parser) processLine(line string) {
	switch {
	case strings.HasPrefix(line, sectionPrefix):
		p.start(gitSectionPath(line))
	case strings.HasPrefix(line, indexPrefix):
		p.start(strings.TrimPrefix(line, indexPrefix))
	case !p.cur.started:
		// Some producers emit bare header pairs without a section line; the
		// first header outside any section opens one.
		if strings.HasPrefix(line, oldHeaderPrefix) || strings.HasPrefix(line, newHeaderPrefix) {
			p.start("")
			p.processHeaderLine(line)
		}
	case p.cur.inHunk:
		p.processHunkLine(line)
	default:
		p.processHeaderLine(line)
	}
}

// processHeaderLine handles lines between the section start and the first
// hunk-offset marker.
func (p *parser) processHeaderLine(line string) {
	switch {
	case strings.HasPrefix(line, hunkPrefix):
		p.cur.inHunk = true
	case strings.HasPrefix(line, renameFromPrefix):
		p.cur.stats.ChangeType = Replaced
	case strings.HasPrefix(line, oldHeaderPrefix):
		if headerPath(line, oldHeaderPrefix) == devNull {
			p.cur.stats.ChangeType = Added
		}
	case strings.HasPrefix(line, newHeaderPrefix):
		path := headerPath(line, newHeaderPrefix)
		if path == devNull {
			p.cur.stats.ChangeType = Deleted
		} else if p.cur.stats.Path == "" {
			p.cur.stats.Path = strippedPath(path)
		}
	}
}

// processHunkLine counts addition and deletion lines; everything else is
// ignored context.
func (p *parser) processHunkLine(line string) {
	switch {
	case strings.HasPrefix(line, hunkPrefix):
		// Subsequent hunk of the same file.
	case strings.HasPrefix(line, "+"):
		p.cur.stats.Insertions++
		p.total.Size += len(line) - 1
	case strings.HasPrefix(line, "-"):
		p.cur.stats.Deletions++
		p.total.Size += len(line) - 1
	}
}

// gitSectionPath extracts the new-side path from a "diff --git a/x b/y" line.
func gitSectionPath(line string) string {
	rest := strings.TrimPrefix(line, sectionPrefix)

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return rest
	}

	return strippedPath(fields[len(fields)-1])
}

// headerPath extracts the path from a "--- "/"+++ " header line, dropping a
// trailing tab-separated timestamp if present.
func headerPath(line, prefix string) string {
	path := strings.TrimPrefix(line, prefix)

	if idx := strings.IndexByte(path, '\t'); idx >= 0 {
		path = path[:idx]
	}

	return path
}

// strippedPath removes the "a/" or "b/" prefix git puts on header paths.
func strippedPath(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}

	return path
}
