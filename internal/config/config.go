// Package config loads and validates the collection run configuration from
// file, environment, and defaults, plus the repositories descriptor file.
package config

import "errors"

// Default configuration values.
const (
	// DefaultExportDir is where table, cursor, and tracker artifacts land.
	DefaultExportDir = "export"
	// DefaultWorkspaceDir is where local checkouts are materialized.
	DefaultWorkspaceDir = "repos"
	// DefaultBatchSize is the per-batch item count for version extraction.
	DefaultBatchSize = 1000
	// DefaultMaxVersions caps the versions requested per repository per run.
	DefaultMaxVersions = 10000000
	// DefaultLogLevel is the minimum log severity.
	DefaultLogLevel = "info"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// Project names the collection project; artifacts live under
	// <export_dir>/<project>.
	Project string `mapstructure:"project"`
	// Repositories is the path to the repositories descriptor JSON file.
	Repositories string `mapstructure:"repositories"`
	// ExportDir is the artifact output root.
	ExportDir string `mapstructure:"export_dir"`
	// WorkspaceDir is the local checkout root.
	WorkspaceDir string `mapstructure:"workspace_dir"`
	// SprintsFile is an optional YAML sprint schedule path.
	SprintsFile string `mapstructure:"sprints_file"`
	// Incremental resumes from persisted cursors and skips up-to-date repos.
	Incremental bool `mapstructure:"incremental"`
	// Force discards a failed repository's cursor to trigger a full redo.
	Force bool `mapstructure:"force"`
	// Stats requests diff statistics per version.
	Stats bool `mapstructure:"stats"`
	// Compress writes lz4-compressed table artifacts.
	Compress bool `mapstructure:"compress"`

	Batch         BatchConfig         `mapstructure:"batch"`
	Encryption    EncryptionConfig    `mapstructure:"encryption"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// BatchConfig bounds paginated extraction.
type BatchConfig struct {
	Size        int `mapstructure:"size"`
	MaxVersions int `mapstructure:"max_versions"`
}

// EncryptionConfig carries the field-encryption secrets. Both empty disables
// encryption without failing the run.
type EncryptionConfig struct {
	Salt   string `mapstructure:"salt"`
	Pepper string `mapstructure:"pepper"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	// OTLPEndpoint is the OTLP gRPC collector address; empty disables tracing.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool `mapstructure:"otlp_insecure"`
	// OTLPHeaders is a "key=value,key=value" header string for the exporter.
	OTLPHeaders string `mapstructure:"otlp_headers"`
	// MetricsAddr is the Prometheus scrape listen address; empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr"`
	// Environment is the deployment environment label.
	Environment string `mapstructure:"environment"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// LogJSON switches log output to JSON.
	LogJSON bool `mapstructure:"log_json"`
	// DebugTrace forces 100% trace sampling.
	DebugTrace bool `mapstructure:"debug_trace"`
	// SampleRatio is the trace sampling ratio when DebugTrace is off.
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Sentinel errors for configuration validation.
var (
	// ErrMissingProject indicates no project name was configured.
	ErrMissingProject = errors.New("project must be set")
	// ErrMissingRepositories indicates no repositories file was configured.
	ErrMissingRepositories = errors.New("repositories must be set")
	// ErrInvalidBatchSize indicates the batch size is not positive.
	ErrInvalidBatchSize = errors.New("batch.size must be positive")
	// ErrInvalidMaxVersions indicates the version cap is not positive.
	ErrInvalidMaxVersions = errors.New("batch.max_versions must be positive")
	// ErrHalfConfiguredSecrets indicates only one of salt/pepper is set.
	ErrHalfConfiguredSecrets = errors.New("encryption.salt and encryption.pepper must be set together")
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("observability.log_level must be debug, info, warn, or error")
	// ErrInvalidSampleRatio indicates the sampling ratio is out of range.
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be between 0 and 1")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Project == "" {
		return ErrMissingProject
	}

	if c.Repositories == "" {
		return ErrMissingRepositories
	}

	if c.Batch.Size <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Batch.MaxVersions <= 0 {
		return ErrInvalidMaxVersions
	}

	if (c.Encryption.Salt == "") != (c.Encryption.Pepper == "") {
		return ErrHalfConfiguredSecrets
	}

	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}
