// Package commands implements CLI command handlers for repoharvest.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repoharvest/internal/collect"
	"github.com/Sumatoshi-tech/repoharvest/internal/config"
	"github.com/Sumatoshi-tech/repoharvest/pkg/observability"
	"github.com/Sumatoshi-tech/repoharvest/pkg/sprint"
	"github.com/Sumatoshi-tech/repoharvest/pkg/version"
)

// ErrCollectionIncomplete is returned when at least one repository failed;
// the run still persisted everything it collected.
var ErrCollectionIncomplete = errors.New("one or more repositories failed")

type collectRunner func(ctx context.Context, cfg *config.Config, out io.Writer) error

// CollectCommand holds the flag state of the collect command.
type CollectCommand struct {
	configPath   string
	project      string
	repositories string
	exportDir    string
	workspaceDir string
	sprintsFile  string
	force        bool
	full         bool
	noStats      bool
	compress     bool

	metricsAddr  string
	otlpEndpoint string
	logLevel     string
	logJSON      bool
	debugTrace   bool

	runFn collectRunner
}

// NewCollectCommand creates the collect command.
func NewCollectCommand() *cobra.Command {
	return newCollectCommandWithDeps(runCollection)
}

func newCollectCommandWithDeps(runFn collectRunner) *cobra.Command {
	cc := &CollectCommand{runFn: runFn}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass over the configured repositories",
		Long: "Collect version histories and auxiliary data from every configured\n" +
			"repository, resuming from the stored cursors.",
		Args: cobra.NoArgs,
		RunE: cc.run,
	}

	cmd.Flags().StringVarP(&cc.configPath, "config", "c", "", "Config file path (default: .repoharvest.yaml in CWD or $HOME)")
	cmd.Flags().StringVar(&cc.project, "project", "", "Project name grouping the exported artifacts")
	cmd.Flags().StringVarP(&cc.repositories, "repositories", "r", "", "Repository definitions file (JSON)")
	cmd.Flags().StringVar(&cc.exportDir, "export-dir", "", "Directory receiving the exported artifacts")
	cmd.Flags().StringVar(&cc.workspaceDir, "workspace-dir", "", "Directory holding the local repository checkouts")
	cmd.Flags().StringVar(&cc.sprintsFile, "sprints", "", "Sprint schedule file (YAML); empty disables sprint matching")
	cmd.Flags().BoolVar(&cc.force, "force", false, "Discard a repository's cursor on extraction failure for a full redo")
	cmd.Flags().BoolVar(&cc.full, "full", false, "Disable incremental collection; re-extract every repository from scratch")
	cmd.Flags().BoolVar(&cc.noStats, "no-stats", false, "Skip diff statistics computation")
	cmd.Flags().BoolVar(&cc.compress, "compress", false, "Compress table artifacts with LZ4")

	cmd.Flags().StringVar(&cc.metricsAddr, "metrics-addr", "", "Prometheus scrape listen address (e.g. ':9464'); empty disables metrics")
	cmd.Flags().StringVar(&cc.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address; empty disables trace export")
	cmd.Flags().StringVar(&cc.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&cc.logJSON, "log-json", false, "JSON-formatted log output")
	cmd.Flags().BoolVar(&cc.debugTrace, "debug-trace", false, "Force 100% trace sampling")

	return cmd
}

func (cc *CollectCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cc.configPath, cc.applyFlags(cmd))
	if err != nil {
		return err
	}

	return cc.runFn(cmd.Context(), cfg, cmd.OutOrStdout())
}

// applyFlags layers explicitly set flags over the file and environment
// configuration.
func (cc *CollectCommand) applyFlags(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()

		if flags.Changed("project") {
			cfg.Project = cc.project
		}

		if flags.Changed("repositories") {
			cfg.Repositories = cc.repositories
		}

		if flags.Changed("export-dir") {
			cfg.ExportDir = cc.exportDir
		}

		if flags.Changed("workspace-dir") {
			cfg.WorkspaceDir = cc.workspaceDir
		}

		if flags.Changed("sprints") {
			cfg.SprintsFile = cc.sprintsFile
		}

		if flags.Changed("force") {
			cfg.Force = cc.force
		}

		if flags.Changed("full") {
			cfg.Incremental = !cc.full
		}

		if flags.Changed("no-stats") {
			cfg.Stats = !cc.noStats
		}

		if flags.Changed("compress") {
			cfg.Compress = cc.compress
		}

		if flags.Changed("metrics-addr") {
			cfg.Observability.MetricsAddr = cc.metricsAddr
		}

		if flags.Changed("otlp-endpoint") {
			cfg.Observability.OTLPEndpoint = cc.otlpEndpoint
		}

		if flags.Changed("log-level") {
			cfg.Observability.LogLevel = cc.logLevel
		}

		if flags.Changed("log-json") {
			cfg.Observability.LogJSON = cc.logJSON
		}

		if flags.Changed("debug-trace") {
			cfg.Observability.DebugTrace = cc.debugTrace
		}
	}
}

func runCollection(ctx context.Context, cfg *config.Config, out io.Writer) error {
	descriptors, err := config.LoadRepositories(cfg.Repositories)
	if err != nil {
		return err
	}

	var schedule *sprint.Schedule

	if cfg.SprintsFile != "" {
		schedule, err = sprint.Load(cfg.SprintsFile)
		if err != nil {
			return err
		}
	}

	providers, err := observability.Init(buildObservabilityConfig(cfg))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() { _ = providers.Shutdown(ctx) }()

	metrics, err := observability.NewCollectionMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	collector := collect.New(cfg, collect.Options{
		Logger:   providers.Logger,
		Tracer:   providers.Tracer,
		Metrics:  metrics,
		Schedule: schedule,
	})

	summary, err := collector.Run(ctx, descriptors)
	if err != nil {
		return err
	}

	summary.Render(out)

	if summary.Failed() {
		return ErrCollectionIncomplete
	}

	return nil
}

func buildObservabilityConfig(cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.MetricsAddr = cfg.Observability.MetricsAddr
	obsCfg.DebugTrace = cfg.Observability.DebugTrace
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogLevel = parseLogLevel(cfg.Observability.LogLevel)
	obsCfg.LogJSON = cfg.Observability.LogJSON

	return obsCfg
}

// parseLogLevel maps a validated level name to its slog severity.
func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
