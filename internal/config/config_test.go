package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repoharvest/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "repoharvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
project: acme
repositories: repos.json
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Project)
	assert.Equal(t, config.DefaultExportDir, cfg.ExportDir)
	assert.Equal(t, config.DefaultWorkspaceDir, cfg.WorkspaceDir)
	assert.Equal(t, config.DefaultBatchSize, cfg.Batch.Size)
	assert.Equal(t, config.DefaultMaxVersions, cfg.Batch.MaxVersions)
	assert.True(t, cfg.Incremental)
	assert.True(t, cfg.Stats)
	assert.False(t, cfg.Force)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
project: acme
repositories: repos.json
export_dir: /srv/export
force: true
batch:
  size: 50
encryption:
  salt: s
  pepper: p
observability:
  log_level: debug
  metrics_addr: ":9464"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/export", cfg.ExportDir)
	assert.True(t, cfg.Force)
	assert.Equal(t, 50, cfg.Batch.Size)
	assert.Equal(t, "s", cfg.Encryption.Salt)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, ":9464", cfg.Observability.MetricsAddr)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("REPOHARVEST_PROJECT", "from-env")

	path := writeConfig(t, `
project: acme
repositories: repos.json
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Project)
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing project",
			content: "repositories: repos.json\n",
			wantErr: config.ErrMissingProject,
		},
		{
			name:    "missing repositories",
			content: "project: acme\n",
			wantErr: config.ErrMissingRepositories,
		},
		{
			name: "bad batch size",
			content: `
project: acme
repositories: repos.json
batch:
  size: -1
`,
			wantErr: config.ErrInvalidBatchSize,
		},
		{
			name: "half secrets",
			content: `
project: acme
repositories: repos.json
encryption:
  salt: only-salt
`,
			wantErr: config.ErrHalfConfiguredSecrets,
		},
		{
			name: "bad log level",
			content: `
project: acme
repositories: repos.json
observability:
  log_level: loud
`,
			wantErr: config.ErrInvalidLogLevel,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)

			_, err := config.LoadConfig(path)

			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
