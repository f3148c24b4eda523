package collect

import (
	"fmt"

	"github.com/Sumatoshi-tech/repoharvest/pkg/persist"
)

// TrackerCache caches update-tracker maps for one run. Each tracker artifact
// (tracker name -> repo name -> opaque token) is loaded lazily on first use
// and written back only when touched. The cache is scoped to a single run and
// passed explicitly into each orchestration step.
type TrackerCache struct {
	dir     string
	loaded  map[string]map[string]string
	touched map[string]bool
}

// NewTrackerCache creates an empty cache over the artifact directory.
func NewTrackerCache(dir string) *TrackerCache {
	return &TrackerCache{
		dir:     dir,
		loaded:  map[string]map[string]string{},
		touched: map[string]bool{},
	}
}

// Token returns the persisted token for a tracker and repository, empty when
// none is known. The tracker artifact is loaded on first access.
func (c *TrackerCache) Token(tracker, repo string) (string, error) {
	tokens, err := c.tokens(tracker)
	if err != nil {
		return "", err
	}

	return tokens[repo], nil
}

// SetToken records an updated token and marks the tracker for write-back.
// An unreadable artifact is replaced by the in-memory state on flush; the
// load failure itself surfaces through the earlier Token read.
func (c *TrackerCache) SetToken(tracker, repo, token string) {
	tokens, err := c.tokens(tracker)
	if err != nil {
		tokens = map[string]string{}
		c.loaded[tracker] = tokens
	}

	tokens[repo] = token
	c.touched[tracker] = true
}

// Flush persists every touched tracker artifact.
func (c *TrackerCache) Flush() error {
	for tracker := range c.touched {
		err := persist.SaveState(c.dir, tracker, persist.NewJSONCodec(), c.loaded[tracker])
		if err != nil {
			return fmt.Errorf("save tracker %s: %w", tracker, err)
		}
	}

	return nil
}

func (c *TrackerCache) tokens(tracker string) (map[string]string, error) {
	tokens, ok := c.loaded[tracker]
	if ok {
		return tokens, nil
	}

	tokens = map[string]string{}

	if persist.StateExists(c.dir, tracker, persist.NewJSONCodec()) {
		err := persist.LoadState(c.dir, tracker, persist.NewJSONCodec(), &tokens)
		if err != nil {
			return nil, fmt.Errorf("load tracker %s: %w", tracker, err)
		}
	}

	c.loaded[tracker] = tokens

	return tokens, nil
}
