// Package persist provides codec-based file persistence for arbitrary state types.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	gobExtension  = ".gob"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// Codec defines how state is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g., ".json", ".gob").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	decoder := json.NewDecoder(r)

	err := decoder.Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, state any) error {
	encoder := gob.NewEncoder(w)

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, state any) error {
	decoder := gob.NewDecoder(r)

	err := decoder.Decode(state)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// LZ4Codec implements Codec by compressing an inner codec's output with lz4.
// Useful for large table artifacts that compress well as JSON.
type LZ4Codec struct {
	inner Codec
}

// NewLZ4Codec creates an lz4 codec wrapping the given inner codec.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{inner: inner}
}

// Encode implements Codec.Encode, compressing the inner codec's output.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := c.inner.Encode(zw, state)
	if err != nil {
		_ = zw.Close()

		return fmt.Errorf("lz4 encode: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 flush: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode, decompressing before the inner decode.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	err := c.inner.Decode(lz4.NewReader(r), state)
	if err != nil {
		return fmt.Errorf("lz4 decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for lz4-compressed files.
func (c *LZ4Codec) Extension() string {
	return c.inner.Extension() + lz4Extension
}

// StatePath returns the artifact path for a basename under dir.
func StatePath(dir, basename string, codec Codec) string {
	return filepath.Join(dir, basename+codec.Extension())
}

// StateExists reports whether the artifact for basename exists under dir.
func StateExists(dir, basename string, codec Codec) bool {
	_, err := os.Stat(StatePath(dir, basename, codec))

	return err == nil
}

// SaveState saves the given state to a file in the specified directory.
// The filename is constructed from the basename and the codec's extension.
// The file is fully rewritten; a crash mid-write is not guaranteed atomic.
func SaveState(dir, basename string, codec Codec, state any) error {
	file, err := os.Create(StatePath(dir, basename, codec))
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer file.Close()

	err = codec.Encode(file, state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return nil
}

// LoadState loads state from a file in the specified directory.
// The filename is constructed from the basename and the codec's extension.
// The state parameter must be a pointer to the target struct.
func LoadState(dir, basename string, codec Codec, state any) error {
	file, err := os.Open(StatePath(dir, basename, codec))
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
