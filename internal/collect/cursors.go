// Package collect drives the per-repository collection run: the up-to-date
// short-circuit, adapter materialization, cursor-ranged extraction, tracker
// seeding and write-back, and artifact persistence.
package collect

import (
	"fmt"

	"github.com/Sumatoshi-tech/repoharvest/pkg/persist"
)

// cursorArtifact is the basename of the latest-version cursor map.
const cursorArtifact = "latest_versions"

// cursorStore holds the per-repository latest-version cursors for one run.
// A cursor advances only after a repository is fully processed.
type cursorStore struct {
	dir       string
	persister *persist.Persister[map[string]string]
	cursors   map[string]string
}

// loadCursors reads the persisted cursor map; a missing artifact starts empty.
func loadCursors(dir string) (*cursorStore, error) {
	s := &cursorStore{
		dir:       dir,
		persister: persist.NewPersister[map[string]string](cursorArtifact, persist.NewJSONCodec()),
		cursors:   map[string]string{},
	}

	if !s.persister.Exists(dir) {
		return s, nil
	}

	err := s.persister.Load(dir, func(state *map[string]string) {
		if *state != nil {
			s.cursors = *state
		}
	})
	if err != nil {
		return nil, fmt.Errorf("load cursors: %w", err)
	}

	return s, nil
}

// Get returns the cursor for a repository, empty when none is known.
func (s *cursorStore) Get(repo string) string {
	return s.cursors[repo]
}

// Set records a new cursor for a repository.
func (s *cursorStore) Set(repo, versionID string) {
	s.cursors[repo] = versionID
}

// Discard removes a repository's cursor so the next run redoes it from scratch.
func (s *cursorStore) Discard(repo string) {
	delete(s.cursors, repo)
}

// Save persists the cursor map.
func (s *cursorStore) Save() error {
	err := s.persister.Save(s.dir, func() *map[string]string {
		return &s.cursors
	})
	if err != nil {
		return fmt.Errorf("save cursors: %w", err)
	}

	return nil
}
