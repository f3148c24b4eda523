package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repoharvest/internal/config"
)

func writeRepositories(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "repos.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadRepositories(t *testing.T) {
	t.Parallel()

	path := writeRepositories(t, `{
		"repositories": [
			{"name": "widget", "url": "https://github.com/acme/widget.git",
			 "options": {"github_token": "t0ken"}},
			{"name": "gadget", "url": "https://git.example.org/gadget.git"}
		]
	}`)

	descriptors, err := config.LoadRepositories(path)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, "widget", descriptors[0].Name)
	assert.Equal(t, "t0ken", descriptors[0].Option("github_token"))
	assert.Equal(t, "gadget", descriptors[1].Name)
	assert.Empty(t, descriptors[1].Option("github_token"))
}

func TestLoadRepositories_SchemaRejectsMissingURL(t *testing.T) {
	t.Parallel()

	path := writeRepositories(t, `{"repositories": [{"name": "widget"}]}`)

	_, err := config.LoadRepositories(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoadRepositories_SchemaRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := writeRepositories(t, `{
		"repositories": [
			{"name": "widget", "url": "https://github.com/acme/widget.git", "branch": "main"}
		]
	}`)

	_, err := config.LoadRepositories(path)

	require.Error(t, err)
}

func TestLoadRepositories_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadRepositories(filepath.Join(t.TempDir(), "absent.json"))

	require.Error(t, err)
}
