package collect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/repoharvest/internal/config"
	"github.com/Sumatoshi-tech/repoharvest/pkg/observability"
	"github.com/Sumatoshi-tech/repoharvest/pkg/persist"
	"github.com/Sumatoshi-tech/repoharvest/pkg/sprint"
	"github.com/Sumatoshi-tech/repoharvest/pkg/table"
	"github.com/Sumatoshi-tech/repoharvest/pkg/vcs"
)

// versionsTableName is the artifact name of the main version table.
const versionsTableName = "vcs_versions"

// piiFields are the version table columns transformed by field encryption.
var piiFields = []string{"developer", "username", "email"}

// Per-repository run outcomes.
const (
	// StatusCollected means versions were extracted and the cursor advanced.
	StatusCollected = "collected"
	// StatusUpToDate means the cheap probe matched the cursor; nothing ran.
	StatusUpToDate = "up-to-date"
	// StatusSkipped means the repository was not processed (empty, unknown kind).
	StatusSkipped = "skipped"
	// StatusFailed means a source or data failure; retried next run.
	StatusFailed = "failed"
)

// Options carries the collaborators a Collector needs beyond configuration.
// Zero-value fields fall back to no-op or default implementations.
type Options struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  *observability.CollectionMetrics
	Schedule *sprint.Schedule
	Factory  Factory
}

// Collector orchestrates one collection run over the configured repositories,
// processing them sequentially and persisting all artifacts at the end.
type Collector struct {
	cfg       *config.Config
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.CollectionMetrics
	schedule  *sprint.Schedule
	factory   Factory
	selector  *vcs.Selector
	tableOpts []table.Option
}

// New creates a collector for the given configuration.
func New(cfg *config.Config, opts Options) *Collector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("collect")
	}

	tableOpts := []table.Option{
		table.WithEncryption(table.Secrets{
			Salt:   cfg.Encryption.Salt,
			Pepper: cfg.Encryption.Pepper,
		}, piiFields...),
	}

	if cfg.Compress {
		tableOpts = append(tableOpts, table.WithCodec(persist.NewLZ4Codec(persist.NewJSONCodec())))
	}

	factory := opts.Factory
	if factory == nil {
		factory = newAdapterFactory(cfg, logger, tableOpts)
	}

	return &Collector{
		cfg:       cfg,
		logger:    logger,
		tracer:    tracer,
		metrics:   opts.Metrics,
		schedule:  opts.Schedule,
		factory:   factory,
		selector:  vcs.NewSelector(),
		tableOpts: tableOpts,
	}
}

// run bundles the mutable state shared across one collection run.
type run struct {
	cursors  *cursorStore
	trackers *TrackerCache
	versions *table.LinkTable
	auxNames []string
	aux      map[string]table.Store
}

// registerAux merges an adapter's auxiliary table into the run-level registry.
// The first instance of a name becomes the registry entry; later instances
// contribute their rows through the tuple-deduplicating Extend.
func (r *run) registerAux(store table.Store) {
	existing, ok := r.aux[store.Name()]
	if !ok {
		r.auxNames = append(r.auxNames, store.Name())
		r.aux[store.Name()] = store

		return
	}

	if existing != store {
		existing.Extend(store.Get())
	}
}

// Run processes every descriptor sequentially, then persists the version
// table, every registered auxiliary table (including empty ones), the cursor
// map, and all touched update trackers. Artifact I/O failures are fatal.
func (c *Collector) Run(ctx context.Context, descriptors []vcs.Descriptor) (*Summary, error) {
	ctx, span := c.tracer.Start(ctx, "collect.run",
		trace.WithAttributes(attribute.Int("collect.repositories", len(descriptors))))
	defer span.End()

	projectDir := filepath.Join(c.cfg.ExportDir, c.cfg.Project)

	err := os.MkdirAll(projectDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	cursors, err := loadCursors(projectDir)
	if err != nil {
		return nil, err
	}

	state := &run{
		cursors:  cursors,
		trackers: NewTrackerCache(projectDir),
		versions: table.NewLink(versionsTableName, []string{"repo_name", "version_id"}, c.tableOpts...),
		aux:      map[string]table.Store{},
	}

	summary := &Summary{Project: c.cfg.Project}

	for _, desc := range descriptors {
		result, repoErr := c.collectRepo(ctx, desc, state)
		if repoErr != nil {
			return nil, repoErr
		}

		summary.Add(result)
		c.metrics.RecordRepo(ctx, result.Status, result.Duration)
	}

	err = c.persist(ctx, projectDir, state)
	if err != nil {
		return nil, err
	}

	summary.ArtifactBytes = artifactBytes(projectDir)

	return summary, nil
}

// collectRepo runs steps for one repository. The returned error is reserved
// for fatal artifact I/O; repository-level failures land in the result.
func (c *Collector) collectRepo(ctx context.Context, desc vcs.Descriptor, state *run) (RepoResult, error) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "collect.repository",
		trace.WithAttributes(attribute.String("repo.name", desc.Name)))
	defer span.End()

	finish := func(result RepoResult) RepoResult {
		result.Name = desc.Name
		result.Duration = time.Since(start)

		return result
	}

	kind, ok := c.selector.Detect(desc.URL)
	if !ok {
		c.logger.WarnContext(ctx, "no adapter for repository", "repo", desc.Name, "url", desc.URL)

		return finish(RepoResult{Status: StatusSkipped, Reason: "unknown repository kind"}), nil
	}

	localPath := filepath.Join(c.cfg.WorkspaceDir, desc.Name)
	cursor := state.cursors.Get(desc.Name)

	if !c.cfg.Incremental {
		// A full run re-extracts from the root; the tuple-keyed version table
		// absorbs rows that were already persisted.
		cursor = ""
	}

	trackerToken := func(name string) string {
		token, tokenErr := state.trackers.Token(name, desc.Name)
		if tokenErr != nil {
			return ""
		}

		return token
	}

	// Auxiliary extraction is skipped along with everything else here, so
	// API-side rows added without a new commit wait for the next commit.
	if c.cfg.Incremental && cursor != "" && c.factory.UpToDate(ctx, kind, desc, localPath, cursor, trackerToken) {
		c.logger.InfoContext(ctx, "repository up to date", "repo", desc.Name, "cursor", cursor)

		return finish(RepoResult{Status: StatusUpToDate}), nil
	}

	repo, err := c.factory.Materialize(ctx, kind, desc, localPath)
	if err != nil {
		c.logger.ErrorContext(ctx, "repository unavailable", "repo", desc.Name, "error", err)

		return finish(RepoResult{Status: StatusFailed, Err: err}), nil
	}
	defer repo.Close()

	if aware, isAware := repo.(vcs.TrackerAware); isAware {
		tokens := map[string]string{}

		for _, name := range aware.TrackerNames() {
			token, tokenErr := state.trackers.Token(name, desc.Name)
			if tokenErr != nil {
				return RepoResult{}, tokenErr
			}

			tokens[name] = token
		}

		aware.SeedTrackerTokens(tokens)
	}

	// Registering before extraction overwrites stale artifacts even when this
	// run contributes no new rows.
	if collector, isCollector := repo.(vcs.AuxiliaryCollector); isCollector {
		for _, store := range collector.AuxiliaryTables() {
			state.registerAux(store)
		}
	}

	result, err := c.extract(ctx, desc, repo, cursor, state)
	if err != nil {
		return RepoResult{}, err
	}

	return finish(result), nil
}

// extract runs the empty-repository check, the ranged version walk, and the
// auxiliary extraction, advancing the cursor only on full success.
func (c *Collector) extract(ctx context.Context, desc vcs.Descriptor, repo vcs.Repository, cursor string, state *run) (RepoResult, error) {
	empty, err := repo.IsEmpty()
	if err != nil {
		return c.repoFailure(ctx, desc, state, err), nil
	}

	if empty {
		c.logger.InfoContext(ctx, "repository is empty", "repo", desc.Name)

		return RepoResult{Status: StatusSkipped, Reason: "empty repository"}, nil
	}

	tip, err := repo.LatestVersion()
	if err != nil {
		return c.repoFailure(ctx, desc, state, err), nil
	}

	records, err := repo.Versions(ctx, vcs.VersionsOptions{
		FromRevision: cursor,
		ToRevision:   tip,
		Stats:        c.cfg.Stats,
		Sprints:      c.schedule,
	})
	if err != nil {
		return c.repoFailure(ctx, desc, state, err), nil
	}

	for _, record := range records {
		state.versions.Append(table.NewRow(record.Fields()))
	}

	if collector, isCollector := repo.(vcs.AuxiliaryCollector); isCollector {
		err = collector.CollectAuxiliary(ctx)
		if err != nil {
			return c.repoFailure(ctx, desc, state, err), nil
		}

		for _, store := range collector.AuxiliaryTables() {
			c.metrics.AddAuxiliaryRows(ctx, store.Name(), store.Len())
		}
	}

	if aware, isAware := repo.(vcs.TrackerAware); isAware {
		for name, token := range aware.TrackerTokens() {
			if token != "" {
				state.trackers.SetToken(name, desc.Name, token)
			}
		}
	}

	state.cursors.Set(desc.Name, tip)
	c.metrics.AddVersions(ctx, len(records))
	c.logger.InfoContext(ctx, "collected repository",
		"repo", desc.Name, "versions", len(records), "cursor", tip)

	return RepoResult{Status: StatusCollected, Versions: len(records)}, nil
}

// repoFailure logs an extraction failure and, under force mode, discards the
// repository's cursor so the next run performs a full redo.
func (c *Collector) repoFailure(ctx context.Context, desc vcs.Descriptor, state *run, err error) RepoResult {
	c.logger.ErrorContext(ctx, "collection failed", "repo", desc.Name, "error", err)

	if c.cfg.Force && state.cursors.Get(desc.Name) != "" {
		state.cursors.Discard(desc.Name)
		c.logger.WarnContext(ctx, "discarded cursor for full redo", "repo", desc.Name)
	}

	return RepoResult{Status: StatusFailed, Err: err}
}

// persist writes every artifact of the run. Failures are fatal; there is no
// recovery path for corrupted on-disk state.
func (c *Collector) persist(ctx context.Context, projectDir string, state *run) error {
	err := state.versions.Write(projectDir)
	if err != nil {
		return err
	}

	c.metrics.AddTablePersisted(ctx, state.versions.Name())

	for _, name := range state.auxNames {
		err = state.aux[name].Write(projectDir)
		if err != nil {
			return err
		}

		c.metrics.AddTablePersisted(ctx, name)
	}

	err = state.cursors.Save()
	if err != nil {
		return err
	}

	return state.trackers.Flush()
}

// artifactBytes sums the on-disk size of the run's artifacts.
func artifactBytes(dir string) int64 {
	var total int64

	_ = filepath.WalkDir(dir, func(_ string, entry os.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr == nil {
			total += info.Size()
		}

		return nil
	})

	return total
}
