package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// persisterState is a struct for persister round-trip testing.
type persisterState struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

func TestPersister_SaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	p := NewPersister[persisterState]("mystate", NewJSONCodec())

	original := persisterState{Label: "hello", Value: 42}

	err := p.Save(dir, func() *persisterState { return &original })

	require.NoError(t, err)
	assert.True(t, p.Exists(dir))

	var restored persisterState

	err = p.Load(dir, func(s *persisterState) { restored = *s })

	require.NoError(t, err)

	assert.Equal(t, original, restored)
}

func TestPersister_LoadMissingFile(t *testing.T) {
	t.Parallel()

	p := NewPersister[persisterState]("missing", NewJSONCodec())

	assert.False(t, p.Exists(t.TempDir()))

	err := p.Load(t.TempDir(), func(_ *persisterState) {})

	assert.Error(t, err)
}
