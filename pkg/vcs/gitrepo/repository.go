// Package gitrepo implements the repository protocol for Git over libgit2.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs"
)

// Descriptor option keys recognized by the Git adapter.
const (
	// OptionUser is the username for HTTP basic or token authentication.
	OptionUser = "user"
	// OptionPassword is the password or access token.
	OptionPassword = "password"
	// OptionUnsafeHosts accepts invalid TLS and host certificates when "true".
	OptionUnsafeHosts = "unsafe_hosts"
)

// originRemote is the remote name the adapter operates on.
const originRemote = "origin"

// originHeadRef points at the default branch of the fetched remote.
const originHeadRef = "refs/remotes/origin/HEAD"

// Options configures the Git adapter.
type Options struct {
	// BatchSize is the number of versions materialized per batch.
	BatchSize int
	// MaxVersions is the hard cap on versions extracted per run.
	MaxVersions int
	// Logger receives adapter progress; nil means the default logger.
	Logger *slog.Logger
}

// Repository is a materialized Git repository handle.
type Repository struct {
	desc   vcs.Descriptor
	path   string
	repo   *git2go.Repository
	opts   Options
	logger *slog.Logger
}

// FromSource establishes or refreshes a local handle for the descriptor,
// deciding internally between an incremental fetch and a fresh clone.
// Connectivity and authentication failures surface as *vcs.SourceError.
func FromSource(ctx context.Context, desc vcs.Descriptor, localPath string, opts Options) (*Repository, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Repository{desc: desc, path: localPath, opts: opts, logger: logger}

	if _, statErr := os.Stat(filepath.Join(localPath, ".git")); statErr == nil {
		err := r.refresh(ctx)
		if err != nil {
			return nil, err
		}

		return r, nil
	}

	err := r.clone(ctx)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Open materializes a handle over an existing local checkout without
// touching the network.
func Open(desc vcs.Descriptor, localPath string, opts Options) (*Repository, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := git2go.OpenRepository(localPath)
	if err != nil {
		return nil, &vcs.SourceError{Repo: desc.Name, Err: fmt.Errorf("open checkout: %w", err)}
	}

	return &Repository{desc: desc, path: localPath, repo: repo, opts: opts, logger: logger}, nil
}

// refresh opens the existing checkout and fetches the origin remote.
func (r *Repository) refresh(ctx context.Context) error {
	repo, err := git2go.OpenRepository(r.path)
	if err != nil {
		return &vcs.SourceError{Repo: r.desc.Name, Err: fmt.Errorf("open checkout: %w", err)}
	}

	r.repo = repo

	remote, err := repo.Remotes.Lookup(originRemote)
	if err != nil {
		if isNotFound(err) {
			// Local-only checkout with nothing to refresh.
			return nil
		}

		return &vcs.SourceError{Repo: r.desc.Name, Err: fmt.Errorf("lookup remote: %w", err)}
	}
	defer remote.Free()

	fetchOpts := fetchOptions(r.desc)

	err = remote.Fetch(nil, &fetchOpts, "")
	if err != nil {
		return &vcs.SourceError{Repo: r.desc.Name, Err: fmt.Errorf("fetch: %w", err)}
	}

	r.logger.DebugContext(ctx, "refreshed repository", "repo", r.desc.Name, "path", r.path)

	return nil
}

// clone creates a fresh checkout under the local path.
func (r *Repository) clone(ctx context.Context) error {
	err := os.MkdirAll(filepath.Dir(r.path), 0o755)
	if err != nil {
		return &vcs.SourceError{Repo: r.desc.Name, Err: fmt.Errorf("create workspace: %w", err)}
	}

	repo, err := git2go.Clone(r.desc.URL, r.path, &git2go.CloneOptions{
		FetchOptions: fetchOptions(r.desc),
	})
	if err != nil {
		return &vcs.SourceError{Repo: r.desc.Name, Err: fmt.Errorf("clone: %w", err)}
	}

	r.repo = repo
	r.logger.InfoContext(ctx, "cloned repository", "repo", r.desc.Name, "path", r.path)

	return nil
}

// fetchOptions builds libgit2 fetch options from the descriptor's opaque
// per-adapter options.
func fetchOptions(desc vcs.Descriptor) git2go.FetchOptions {
	callbacks := git2go.RemoteCallbacks{}

	user := desc.Option(OptionUser)
	password := desc.Option(OptionPassword)

	if password != "" {
		callbacks.CredentialsCallback = func(_, usernameFromURL string, _ git2go.CredentialType) (*git2go.Credential, error) {
			username := user
			if username == "" {
				username = usernameFromURL
			}

			return git2go.NewCredentialUserpassPlaintext(username, password)
		}
	}

	if desc.Option(OptionUnsafeHosts) == "true" {
		callbacks.CertificateCheckCallback = func(_ *git2go.Certificate, _ bool, _ string) error {
			return nil
		}
	}

	return git2go.FetchOptions{RemoteCallbacks: callbacks}
}

// Descriptor returns the source descriptor this handle was built from.
func (r *Repository) Descriptor() vcs.Descriptor {
	return r.desc
}

// Exists reports whether the handle is operable.
func (r *Repository) Exists() bool {
	return r.repo != nil
}

// IsEmpty reports whether the repository has no versions.
func (r *Repository) IsEmpty() (bool, error) {
	unborn, err := r.repo.IsHeadUnborn()
	if err != nil {
		return false, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("head probe: %w", err)}
	}

	return unborn, nil
}

// LatestVersion returns the tip commit id, preferring the fetched remote's
// default branch over the local HEAD.
func (r *Repository) LatestVersion() (string, error) {
	oid, err := r.tip()
	if err != nil {
		return "", err
	}

	return oid.String(), nil
}

// tip resolves the walk start: origin's default branch when fetched, the
// local HEAD otherwise.
func (r *Repository) tip() (*git2go.Oid, error) {
	ref, err := r.repo.References.Lookup(originHeadRef)
	if err == nil {
		defer ref.Free()

		resolved, resolveErr := ref.Resolve()
		if resolveErr == nil {
			defer resolved.Free()

			return resolved.Target(), nil
		}
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("resolve tip: %w", err)}
	}
	defer head.Free()

	return head.Target(), nil
}

// Contents returns the file contents at a revision. An invalid path or
// revision fails with *vcs.FileNotFoundError.
func (r *Repository) Contents(_ context.Context, path, revision string) ([]byte, error) {
	oid, err := r.resolveRevision(revision)
	if err != nil {
		return nil, &vcs.FileNotFoundError{Path: path, Revision: revision}
	}

	commit, err := r.repo.LookupCommit(oid)
	if err != nil {
		return nil, &vcs.FileNotFoundError{Path: path, Revision: revision}
	}
	defer commit.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("commit tree: %w", err)}
	}
	defer tree.Free()

	entry, err := tree.EntryByPath(path)
	if err != nil {
		if isNotFound(err) {
			return nil, &vcs.FileNotFoundError{Path: path, Revision: revision}
		}

		return nil, &vcs.DataError{Repo: r.desc.Name, Err: fmt.Errorf("tree entry: %w", err)}
	}

	blob, err := r.repo.LookupBlob(entry.Id)
	if err != nil {
		return nil, &vcs.FileNotFoundError{Path: path, Revision: revision}
	}
	defer blob.Free()

	return blob.Contents(), nil
}

// resolveRevision turns a revision string into an oid; empty means tip.
func (r *Repository) resolveRevision(revision string) (*git2go.Oid, error) {
	if revision == "" {
		return r.tip()
	}

	oid, err := git2go.NewOid(revision)
	if err != nil {
		return nil, fmt.Errorf("parse revision: %w", err)
	}

	return oid, nil
}

// Close releases the underlying libgit2 handle.
func (r *Repository) Close() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// UpToDate is the cheap remote-tip probe used before materializing a
// repository. It opens an existing checkout, lists the remote heads, and
// compares the remote HEAD with the last known version. Any failure means
// "cannot tell, proceed" (false).
func UpToDate(_ context.Context, desc vcs.Descriptor, localPath, lastKnown string) bool {
	if lastKnown == "" {
		return false
	}

	repo, err := git2go.OpenRepository(localPath)
	if err != nil {
		return false
	}
	defer repo.Free()

	remote, err := repo.Remotes.Lookup(originRemote)
	if err != nil {
		return false
	}
	defer remote.Free()

	fetchOpts := fetchOptions(desc)

	err = remote.ConnectFetch(&fetchOpts.RemoteCallbacks, nil, nil)
	if err != nil {
		return false
	}
	defer remote.Disconnect()

	heads, err := remote.Ls()
	if err != nil {
		return false
	}

	for _, head := range heads {
		if head.Name == "HEAD" {
			return head.Id.String() == lastKnown
		}
	}

	return false
}

// isNotFound reports whether the error is a libgit2 not-found condition.
func isNotFound(err error) bool {
	var gitErr *git2go.GitError

	return errors.As(err, &gitErr) && gitErr.Code == git2go.ErrorCodeNotFound
}
