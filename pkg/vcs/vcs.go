// Package vcs defines the repository protocol shared by all version control
// adapters: version records, repository descriptors, the adapter contract,
// and the error taxonomy the orchestrator reacts to.
package vcs

import (
	"context"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/repoharvest/pkg/diffstat"
	"github.com/Sumatoshi-tech/repoharvest/pkg/sprint"
	"github.com/Sumatoshi-tech/repoharvest/pkg/table"
)

// Version is one collected version record. Identity is (RepoName,
// VersionID); records are immutable once produced.
type Version struct {
	RepoName          string
	VersionID         string
	SprintID          int
	DeveloperName     string
	DeveloperUsername string
	DeveloperEmail    string
	Message           string
	CommitDate        time.Time
	Stats             *diffstat.Stats
}

// Fields flattens the record into a string-valued table row.
func (v Version) Fields() map[string]string {
	fields := map[string]string{
		"repo_name":   v.RepoName,
		"version_id":  v.VersionID,
		"sprint_id":   strconv.Itoa(v.SprintID),
		"developer":   v.DeveloperName,
		"username":    v.DeveloperUsername,
		"email":       v.DeveloperEmail,
		"message":     v.Message,
		"commit_date": v.CommitDate.UTC().Format(time.RFC3339),
	}

	if v.Stats != nil {
		fields["insertions"] = strconv.Itoa(v.Stats.Insertions)
		fields["deletions"] = strconv.Itoa(v.Stats.Deletions)
		fields["number_of_files"] = strconv.Itoa(v.Stats.NumberOfFiles)
		fields["number_of_lines"] = strconv.Itoa(v.Stats.NumberOfLines)
		fields["size"] = strconv.Itoa(v.Stats.Size)
	}

	return fields
}

// Descriptor identifies a configured repository source: name, connection
// URL, and opaque per-adapter options (credentials, unsafe-host toggle,
// per-repository flags).
type Descriptor struct {
	Name    string
	URL     string
	Options map[string]string
}

// Option returns a per-adapter option value, empty when unset.
func (d Descriptor) Option(key string) string {
	return d.Options[key]
}

// VersionsOptions selects the range and shape of a Versions extraction.
type VersionsOptions struct {
	// PathFilter restricts records to versions touching the path prefix.
	PathFilter string
	// FromRevision is the exclusive lower bound; empty means root.
	FromRevision string
	// ToRevision is the inclusive upper bound; empty means tip.
	ToRevision string
	// Descending requests newest-first ordering.
	Descending bool
	// Stats requests diff statistics per version.
	Stats bool
	// Sprints buckets commit dates into iteration ids when non-nil.
	Sprints *sprint.Schedule
}

// Repository is the uniform per-VCS-kind contract. Implementations page
// internally through the batch iteration controller so unbounded history
// never exhausts memory.
type Repository interface {
	// Descriptor returns the source descriptor this handle was built from.
	Descriptor() Descriptor
	// Exists reports whether the repository is operable. It must not fail
	// for a missing local checkout when the adapter can operate remotely.
	Exists() bool
	// IsEmpty reports whether the repository has no versions.
	IsEmpty() (bool, error)
	// LatestVersion returns the current tip identifier.
	LatestVersion() (string, error)
	// Versions produces version records for the requested range. Both bounds
	// given means after-from through-to; only from means after-from through
	// tip; neither means root to tip.
	Versions(ctx context.Context, opts VersionsOptions) ([]Version, error)
	// Contents returns the file contents at a revision. An invalid path or
	// revision fails with *FileNotFoundError, never silently empty content.
	Contents(ctx context.Context, path, revision string) ([]byte, error)
	// Close releases the underlying handle.
	Close()
}

// AuxiliaryCollector is the optional capability for adapters that extract
// adapter-specific rows (tags, review events) next to version records.
type AuxiliaryCollector interface {
	// AuxiliaryTables returns the adapter's auxiliary tables, present even
	// when empty so stale artifacts get overwritten.
	AuxiliaryTables() []table.Store
	// CollectAuxiliary fills the auxiliary tables, resuming from the seeded
	// update trackers.
	CollectAuxiliary(ctx context.Context) error
}

// TrackerAware is the optional capability for adapters with resumable
// auxiliary extraction. Tracker tokens are opaque progress markers distinct
// from the main cursor, with their own notion of "last seen".
type TrackerAware interface {
	// TrackerNames returns the tracker artifact names the adapter uses.
	TrackerNames() []string
	// SeedTrackerTokens installs previously persisted tokens by tracker name.
	SeedTrackerTokens(tokens map[string]string)
	// TrackerTokens returns the updated tokens after extraction.
	TrackerTokens() map[string]string
}
