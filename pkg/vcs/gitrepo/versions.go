package gitrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/repoharvest/pkg/batch"
	"github.com/Sumatoshi-tech/repoharvest/pkg/diffstat"
	"github.com/Sumatoshi-tech/repoharvest/pkg/safeconv"
	"github.com/Sumatoshi-tech/repoharvest/pkg/sprint"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs"
)

// Versions produces version records for the requested range, paging
// internally through the batch iteration controller. Diff statistics
// failures downgrade to an all-zero aggregate so version metadata is never
// lost.
func (r *Repository) Versions(ctx context.Context, opts vcs.VersionsOptions) ([]vcs.Version, error) {
	walk, err := r.rangeWalk(opts)
	if err != nil {
		return nil, err
	}
	defer walk.Free()

	limiter := batch.NewLimiter(r.opts.BatchSize, r.opts.MaxVersions)
	versions := make([]vcs.Version, 0, limiter.Size())
	hadResults := true
	exhausted := false

	for !exhausted && limiter.Check(hadResults) {
		var chunk []vcs.Version

		chunk, exhausted, err = r.walkBatch(ctx, walk, limiter.Size(), opts)
		if err != nil {
			return nil, err
		}

		versions = append(versions, chunk...)
		hadResults = len(chunk) > 0

		limiter.Update()
	}

	orderVersions(versions, opts.Descending)

	return versions, nil
}

// rangeWalk builds a revision walk honoring the range semantics: both
// bounds given means after-from through-to; only from means after-from
// through tip; neither means root to tip.
func (r *Repository) rangeWalk(opts vcs.VersionsOptions) (*git2go.RevWalk, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("create revwalk: %w", err)}
	}

	to, err := r.resolveRevision(opts.ToRevision)
	if err != nil {
		walk.Free()

		return nil, &vcs.DataError{Repo: r.desc.Name, Err: err}
	}

	err = walk.Push(to)
	if err != nil {
		walk.Free()

		return nil, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("push range end: %w", err)}
	}

	if opts.FromRevision != "" {
		from, fromErr := git2go.NewOid(opts.FromRevision)
		if fromErr != nil {
			walk.Free()

			return nil, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("parse range start: %w", fromErr)}
		}

		// The lower bound is exclusive: hide the cursor commit and its
		// ancestors, walk everything after it.
		hideErr := walk.Hide(from)
		if hideErr != nil {
			walk.Free()

			return nil, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("hide range start: %w", hideErr)}
		}
	}

	// Topological time order keeps parents after children in the natural
	// newest-first walk.
	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	return walk, nil
}

// walkBatch materializes up to size version records from the walk. The
// second return value reports walk exhaustion.
func (r *Repository) walkBatch(ctx context.Context, walk *git2go.RevWalk, size int, opts vcs.VersionsOptions) ([]vcs.Version, bool, error) {
	versions := make([]vcs.Version, 0, size)

	for len(versions) < size {
		if ctx.Err() != nil {
			return nil, false, &vcs.DataError{Repo: r.desc.Name, Err: ctx.Err()}
		}

		oid := new(git2go.Oid)

		err := walk.Next(oid)
		if err != nil {
			if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
				return versions, true, nil
			}

			return nil, false, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("revwalk next: %w", err)}
		}

		version, include, err := r.buildVersion(oid, opts)
		if err != nil {
			return nil, false, err
		}

		if include {
			versions = append(versions, version)
		}
	}

	return versions, false, nil
}

// buildVersion turns one commit into a version record, applying the path
// filter and optional diff statistics.
func (r *Repository) buildVersion(oid *git2go.Oid, opts vcs.VersionsOptions) (vcs.Version, bool, error) {
	commit, err := r.repo.LookupCommit(oid)
	if err != nil {
		return vcs.Version{}, false, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("lookup commit: %w", err)}
	}
	defer commit.Free()

	needDiff := opts.Stats || opts.PathFilter != ""

	var stats *diffstat.Stats

	if needDiff {
		aggregate, paths := r.commitDiff(commit, opts.Stats)

		if opts.PathFilter != "" && !touchesPath(paths, opts.PathFilter) {
			return vcs.Version{}, false, nil
		}

		if opts.Stats {
			stats = &aggregate
		}
	}

	author := commit.Author()
	when := commit.Committer().When

	version := vcs.Version{
		RepoName:       r.desc.Name,
		VersionID:      oid.String(),
		SprintID:       sprint.NoSprint,
		DeveloperName:  author.Name,
		DeveloperEmail: author.Email,
		Message:        strings.TrimSpace(commit.Message()),
		CommitDate:     when,
		Stats:          stats,
	}

	if opts.Sprints != nil {
		version.SprintID = opts.Sprints.MatchTime(when)
	}

	return version, true, nil
}

// commitDiff computes the textual diff of a commit against its first parent
// and parses it into change statistics. Any diff failure yields the all-zero
// aggregate and no paths.
func (r *Repository) commitDiff(commit *git2go.Commit, wantText bool) (diffstat.Stats, []string) {
	diff, err := r.parentDiff(commit)
	if err != nil {
		return diffstat.Zero(), nil
	}
	defer func() { _ = diff.Free() }()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return diffstat.Zero(), nil
	}

	paths := make([]string, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		paths = append(paths, delta.NewFile.Path)
	}

	if !wantText {
		return diffstat.Zero(), paths
	}

	var text strings.Builder

	var fallback []diffstat.FileStats

	for i := range numDeltas {
		patchText, ok := deltaPatchText(diff, i)
		if ok {
			text.WriteString(patchText)

			continue
		}

		// No patch text for this delta; line counts come from the blob pair.
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		fallback = append(fallback, r.blobPairStats(delta))
	}

	stats, _ := diffstat.Parse(text.String())

	for _, fs := range fallback {
		stats.AddFile(fs)
	}

	return stats, paths
}

// deltaPatchText renders one delta's textual patch, reporting failure
// instead of propagating it.
func deltaPatchText(diff *git2go.Diff, idx int) (string, bool) {
	patch, err := diff.Patch(idx)
	if err != nil {
		return "", false
	}

	text, err := patch.String()

	_ = patch.Free()

	if err != nil {
		return "", false
	}

	return text, true
}

// blobPairStats computes line counts for a delta from its blob contents when
// no patch text is available.
func (r *Repository) blobPairStats(delta git2go.DiffDelta) diffstat.FileStats {
	fs := diffstat.FromContents(r.blobText(delta.OldFile.Oid), r.blobText(delta.NewFile.Oid))
	fs.Path = delta.NewFile.Path

	return fs
}

// blobText reads a blob's contents, empty for the absent side of an add or
// delete.
func (r *Repository) blobText(oid *git2go.Oid) string {
	if oid == nil || oid.IsZero() {
		return ""
	}

	blob, err := r.repo.LookupBlob(oid)
	if err != nil {
		return ""
	}
	defer blob.Free()

	return string(blob.Contents())
}

// parentDiff diffs the commit tree against its first parent tree, or against
// the empty tree for root commits.
func (r *Repository) parentDiff(commit *git2go.Commit) (*git2go.Diff, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("commit tree: %w", err)
	}
	defer tree.Free()

	var parentTree *git2go.Tree

	if safeconv.MustUintToInt(commit.ParentCount()) > 0 {
		parent := commit.Parent(0)
		defer parent.Free()

		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("parent tree: %w", err)
		}
		defer parentTree.Free()
	}

	diffOpts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("diff options: %w", err)
	}

	diff, err := r.repo.DiffTreeToTree(parentTree, tree, &diffOpts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return diff, nil
}

// touchesPath reports whether any changed path falls under the filter prefix.
func touchesPath(paths []string, filter string) bool {
	for _, p := range paths {
		if strings.HasPrefix(p, filter) {
			return true
		}
	}

	return false
}

// orderVersions re-sorts only when the natural walk order disagrees with the
// requested direction, detected from the first two records.
func orderVersions(versions []vcs.Version, descending bool) {
	if len(versions) < 2 {
		return
	}

	naturalDescending := versions[0].CommitDate.After(versions[1].CommitDate)
	if naturalDescending == descending {
		return
	}

	sort.SliceStable(versions, func(i, j int) bool {
		if descending {
			return versions[i].CommitDate.After(versions[j].CommitDate)
		}

		return versions[i].CommitDate.Before(versions[j].CommitDate)
	})
}
