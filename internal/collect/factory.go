package collect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/repoharvest/internal/config"
	"github.com/Sumatoshi-tech/repoharvest/pkg/table"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs/githubrepo"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs/gitrepo"
)

// TrackerLookup resolves a repository's persisted token for a named update
// tracker; it returns empty when none is known.
type TrackerLookup func(name string) string

// Factory materializes adapter handles for detected repository kinds.
// The up-to-date probe runs without materializing anything.
type Factory interface {
	// UpToDate is the cheap remote-tip probe; false means "cannot tell, proceed".
	UpToDate(ctx context.Context, kind vcs.Kind, desc vcs.Descriptor, localPath, lastKnown string, tracker TrackerLookup) bool
	// Materialize establishes or refreshes the repository handle.
	Materialize(ctx context.Context, kind vcs.Kind, desc vcs.Descriptor, localPath string) (vcs.Repository, error)
}

// adapterFactory is the production factory dispatching on the adapter kind.
type adapterFactory struct {
	gitOpts   gitrepo.Options
	tableOpts []table.Option
	maxItems  int
}

// newAdapterFactory builds the production factory from the run configuration.
func newAdapterFactory(cfg *config.Config, logger *slog.Logger, tableOpts []table.Option) *adapterFactory {
	return &adapterFactory{
		gitOpts: gitrepo.Options{
			BatchSize:   cfg.Batch.Size,
			MaxVersions: cfg.Batch.MaxVersions,
			Logger:      logger,
		},
		tableOpts: tableOpts,
		maxItems:  cfg.Batch.MaxVersions,
	}
}

func (f *adapterFactory) UpToDate(ctx context.Context, kind vcs.Kind, desc vcs.Descriptor, localPath, lastKnown string, tracker TrackerLookup) bool {
	switch kind {
	case vcs.KindGitHub:
		return githubrepo.UpToDate(ctx, desc, localPath, lastKnown, tracker(githubrepo.UpdateTrackerName))
	case vcs.KindGit:
		return gitrepo.UpToDate(ctx, desc, localPath, lastKnown)
	default:
		return false
	}
}

func (f *adapterFactory) Materialize(ctx context.Context, kind vcs.Kind, desc vcs.Descriptor, localPath string) (vcs.Repository, error) {
	switch kind {
	case vcs.KindGitHub:
		repo, err := githubrepo.FromSource(ctx, desc, localPath, githubrepo.Options{
			Options:      f.gitOpts,
			MaxItems:     f.maxItems,
			TableOptions: f.tableOpts,
		})
		if err != nil {
			return nil, err
		}

		return repo, nil
	case vcs.KindGit:
		repo, err := gitrepo.FromSource(ctx, desc, localPath, f.gitOpts)
		if err != nil {
			return nil, err
		}

		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported repository kind %q", kind)
	}
}
