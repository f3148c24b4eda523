// Package githubrepo layers GitHub API auxiliary extraction over the plain
// Git adapter: the VCS operations come from the embedded Git handle, while
// release tags and pull-request review events come from the REST API.
package githubrepo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/Sumatoshi-tech/repoharvest/pkg/table"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs/gitrepo"
)

// Descriptor option keys recognized by the GitHub adapter, next to the Git
// adapter's credential options.
const (
	// OptionToken is the GitHub API access token.
	OptionToken = "github_token"
	// OptionAPIBase overrides the API base URL, for GitHub Enterprise hosts.
	OptionAPIBase = "github_api_url"
)

// UpdateTrackerName is the tracker holding the review-event resume token.
const UpdateTrackerName = "github_update"

// Auxiliary table names.
const (
	tagsTableName    = "github_tags"
	reviewsTableName = "github_review_events"
)

// defaultPerPage is the API page size; GitHub caps list endpoints at 100.
const defaultPerPage = 100

// Options configures the GitHub adapter on top of the Git adapter options.
type Options struct {
	gitrepo.Options

	// PerPage is the API page size; non-positive means the GitHub maximum.
	PerPage int
	// MaxItems is the hard cap on API items requested per auxiliary run.
	MaxItems int
	// TableOptions applies to the auxiliary tables (encryption, codec).
	TableOptions []table.Option
}

// Repository is a GitHub-hosted repository handle. All protocol operations
// delegate to the embedded Git adapter.
type Repository struct {
	*gitrepo.Repository

	api      *github.Client
	owner    string
	name     string
	opts     Options
	logger   *slog.Logger
	tags     *table.LinkTable
	reviews  *table.LinkTable
	trackers map[string]string
}

// FromSource materializes the Git checkout for the descriptor and attaches
// the API client for auxiliary extraction.
func FromSource(ctx context.Context, desc vcs.Descriptor, localPath string, opts Options) (*Repository, error) {
	git, err := gitrepo.FromSource(ctx, desc, localPath, opts.Options)
	if err != nil {
		return nil, err
	}

	return wrap(ctx, desc, git, opts)
}

// Open attaches the API client to an existing local checkout without
// touching the Git remote.
func Open(ctx context.Context, desc vcs.Descriptor, localPath string, opts Options) (*Repository, error) {
	git, err := gitrepo.Open(desc, localPath, opts.Options)
	if err != nil {
		return nil, err
	}

	return wrap(ctx, desc, git, opts)
}

func wrap(ctx context.Context, desc vcs.Descriptor, git *gitrepo.Repository, opts Options) (*Repository, error) {
	owner, name, err := OwnerRepo(desc.URL)
	if err != nil {
		git.Close()

		return nil, &vcs.SourceError{Repo: desc.Name, Err: err}
	}

	api, err := apiClient(ctx, desc.Option(OptionToken), desc.Option(OptionAPIBase))
	if err != nil {
		git.Close()

		return nil, &vcs.SourceError{Repo: desc.Name, Err: err}
	}

	if opts.PerPage <= 0 || opts.PerPage > defaultPerPage {
		opts.PerPage = defaultPerPage
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Repository{
		Repository: git,
		api:        api,
		owner:      owner,
		name:       name,
		opts:       opts,
		logger:     logger,
		tags:       table.NewLink(tagsTableName, []string{"repo_name", "tag_name"}, opts.TableOptions...),
		reviews:    table.NewLink(reviewsTableName, []string{"repo_name", "pull_request_id", "reviewer", "updated_date"}, opts.TableOptions...),
		trackers:   map[string]string{},
	}, nil
}

// OwnerRepo extracts the owner and repository name from a GitHub clone URL,
// accepting both https and scp-like forms.
func OwnerRepo(repoURL string) (string, string, error) {
	path := ""

	if at := strings.IndexByte(repoURL, '@'); at >= 0 && !strings.Contains(repoURL, "://") {
		if colon := strings.IndexByte(repoURL, ':'); colon > at {
			path = repoURL[colon+1:]
		}
	} else {
		parsed, err := url.Parse(repoURL)
		if err != nil {
			return "", "", fmt.Errorf("parse repository url: %w", err)
		}

		path = strings.TrimPrefix(parsed.Path, "/")
	}

	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository url %q has no owner/name path", repoURL)
	}

	return parts[0], parts[1], nil
}

// apiClient builds the REST client, with token transport when a token is
// configured and an enterprise base URL when one is given.
func apiClient(ctx context.Context, token, baseURL string) (*github.Client, error) {
	httpClient := http.DefaultClient

	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client := github.NewClient(httpClient)

	if baseURL != "" {
		enterprise, err := client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("api base url: %w", err)
		}

		client = enterprise
	}

	return client, nil
}

// UpToDate probes the API branch tip when a token is configured, falling
// back to the Git remote probe. Any failure means "cannot tell" (false).
// trackerToken is the repository's persisted auxiliary resume token; a
// matching tip counts as current even when newer auxiliary data may exist
// upstream, so API-side rows wait for the next commit.
func UpToDate(ctx context.Context, desc vcs.Descriptor, localPath, lastKnown, trackerToken string) bool {
	if lastKnown == "" {
		return false
	}

	token := desc.Option(OptionToken)
	if token == "" {
		return gitrepo.UpToDate(ctx, desc, localPath, lastKnown)
	}

	owner, name, err := OwnerRepo(desc.URL)
	if err != nil {
		return false
	}

	client, err := apiClient(ctx, token, desc.Option(OptionAPIBase))
	if err != nil {
		return false
	}

	info, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return false
	}

	branch, _, err := client.Repositories.GetBranch(ctx, owner, name, info.GetDefaultBranch(), 0)
	if err != nil {
		return false
	}

	return branch.GetCommit().GetSHA() == lastKnown
}
