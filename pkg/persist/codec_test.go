package persist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// codecState is a struct for codec round-trip testing.
type codecState struct {
	Label  string   `json:"label"`
	Value  int      `json:"value"`
	Tokens []string `json:"tokens"`
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewJSONCodec()
	original := codecState{Label: "hello", Value: 42, Tokens: []string{"a", "b"}}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, &original))

	var restored codecState

	require.NoError(t, codec.Decode(&buf, &restored))

	assert.Equal(t, original, restored)
}

func TestGobCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewGobCodec()
	original := codecState{Label: "gob", Value: 7}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, &original))

	var restored codecState

	require.NoError(t, codec.Decode(&buf, &restored))

	assert.Equal(t, original.Label, restored.Label)
	assert.Equal(t, original.Value, restored.Value)
}

func TestLZ4Codec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewLZ4Codec(NewJSONCodec())
	original := codecState{Label: "compressed", Value: 1, Tokens: []string{"x", "y", "z"}}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, &original))

	var restored codecState

	require.NoError(t, codec.Decode(&buf, &restored))

	assert.Equal(t, original, restored)
}

func TestLZ4Codec_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".json.lz4", NewLZ4Codec(NewJSONCodec()).Extension())
	assert.Equal(t, ".gob.lz4", NewLZ4Codec(NewGobCodec()).Extension())
}

func TestSaveLoadState(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	codec := NewJSONCodec()
	state := codecState{Label: "disk", Value: 3}

	require.NoError(t, SaveState(dir, "mystate", codec, &state))

	assert.True(t, StateExists(dir, "mystate", codec))
	assert.False(t, StateExists(dir, "otherstate", codec))

	var restored codecState

	require.NoError(t, LoadState(dir, "mystate", codec, &restored))

	assert.Equal(t, state, restored)
}

func TestLoadState_Missing(t *testing.T) {
	t.Parallel()

	var restored codecState

	err := LoadState(t.TempDir(), "absent", NewJSONCodec(), &restored)

	assert.Error(t, err)
}
