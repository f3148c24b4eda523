package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repoharvest/internal/config"
)

func captureRunner(captured **config.Config) collectRunner {
	return func(_ context.Context, cfg *config.Config, _ io.Writer) error {
		*captured = cfg

		return nil
	}
}

func TestCollect_FlagOverrides(t *testing.T) {
	var captured *config.Config

	cmd := newCollectCommandWithDeps(captureRunner(&captured))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{
		"--project", "acme",
		"--repositories", "repos.json",
		"--export-dir", "out",
		"--sprints", "sprints.yaml",
		"--full",
		"--no-stats",
		"--force",
		"--compress",
		"--log-level", "debug",
		"--log-json",
	})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, captured)

	assert.Equal(t, "acme", captured.Project)
	assert.Equal(t, "repos.json", captured.Repositories)
	assert.Equal(t, "out", captured.ExportDir)
	assert.Equal(t, "sprints.yaml", captured.SprintsFile)
	assert.False(t, captured.Incremental)
	assert.False(t, captured.Stats)
	assert.True(t, captured.Force)
	assert.True(t, captured.Compress)
	assert.Equal(t, "debug", captured.Observability.LogLevel)
	assert.True(t, captured.Observability.LogJSON)
}

func TestCollect_DefaultsPreservedWithoutFlags(t *testing.T) {
	var captured *config.Config

	cmd := newCollectCommandWithDeps(captureRunner(&captured))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--project", "acme", "--repositories", "repos.json"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, captured)

	assert.True(t, captured.Incremental)
	assert.True(t, captured.Stats)
	assert.False(t, captured.Force)
	assert.Equal(t, config.DefaultExportDir, captured.ExportDir)
	assert.Equal(t, config.DefaultBatchSize, captured.Batch.Size)
}

func TestCollect_FlagOverridesConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"project: filecfg\nrepositories: file-repos.json\nstats: false\n",
	), 0o644))

	var captured *config.Config

	cmd := newCollectCommandWithDeps(captureRunner(&captured))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", configPath, "--project", "flagcfg"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, captured)

	assert.Equal(t, "flagcfg", captured.Project)
	assert.Equal(t, "file-repos.json", captured.Repositories)
	assert.False(t, captured.Stats)
}

func TestCollect_MissingProjectFails(t *testing.T) {
	cmd := newCollectCommandWithDeps(captureRunner(new(*config.Config)))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--repositories", "repos.json"})

	err := cmd.Execute()

	require.ErrorIs(t, err, config.ErrMissingProject)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "ERROR", parseLogLevel("error").String())
	assert.Equal(t, "INFO", parseLogLevel("info").String())
	assert.Equal(t, "INFO", parseLogLevel("").String())
}
