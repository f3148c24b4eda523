package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_Detect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		kind Kind
	}{
		{name: "github https", url: "https://github.com/acme/widget.git", kind: KindGitHub},
		{name: "github scp", url: "git@github.com:acme/widget.git", kind: KindGitHub},
		{name: "plain https", url: "https://git.example.org/widget.git", kind: KindGit},
		{name: "plain scp", url: "git@git.example.org:widget.git", kind: KindGit},
		{name: "local path", url: "/srv/git/widget", kind: KindGit},
	}

	s := NewSelector()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			kind, ok := s.Detect(tc.url)

			require.True(t, ok)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestSelector_RegistrationOrderWins(t *testing.T) {
	t.Parallel()

	s := &Selector{}
	s.Register(func(string) bool { return true }, KindGitHub)
	s.Register(func(string) bool { return true }, KindGit)

	kind, ok := s.Detect("anything")

	require.True(t, ok)
	assert.Equal(t, KindGitHub, kind)
}

func TestSelector_NoMatch(t *testing.T) {
	t.Parallel()

	s := &Selector{}

	_, ok := s.Detect("https://example.org/repo")

	assert.False(t, ok)
}

func TestVersion_Fields(t *testing.T) {
	t.Parallel()

	v := Version{
		RepoName:      "widget",
		VersionID:     "abc123",
		SprintID:      7,
		DeveloperName: "Alice",
		Message:       "fix crash",
	}

	fields := v.Fields()

	assert.Equal(t, "widget", fields["repo_name"])
	assert.Equal(t, "abc123", fields["version_id"])
	assert.Equal(t, "7", fields["sprint_id"])
	assert.NotContains(t, fields, "insertions")
}
