package table

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/repoharvest/pkg/persist"
)

// Table model errors.
var (
	// ErrRowNotFound is returned by Update when no stored row matches the search row.
	ErrRowNotFound = errors.New("table: row not found")
	// ErrKeyChanged is returned by Update when the patch tries to change a key field.
	ErrKeyChanged = errors.New("table: key field cannot be changed")
)

// Store is the contract shared by the plain, key-indexed, and link-indexed
// table variants. It is the engine's only persistence path.
type Store interface {
	// Name returns the table name, which doubles as the artifact basename.
	Name() string
	// Append stores one row, returning the stored (possibly encrypted) row.
	// A duplicate append is a no-op returning false.
	Append(row Row) (Row, bool)
	// Extend appends each of the given rows, skipping duplicates.
	Extend(rows []Row)
	// Get returns a deep copy of all stored rows.
	Get() []Row
	// Has reports whether an equivalent row is stored.
	Has(row Row) bool
	// GetRow returns a copy of the stored row matching the search row.
	GetRow(row Row) (Row, bool)
	// Update patches the stored row matching the search row.
	Update(search, patch Row) error
	// Len returns the number of stored rows.
	Len() int
	// Clear removes all stored rows.
	Clear()
	// Write persists the table under dir, merging with a pre-existing
	// artifact; in-memory rows win conflicts.
	Write(dir string) error
	// Load replaces the in-memory rows with the persisted artifact, if any.
	Load(dir string) error
}

// Option configures a table variant.
type Option func(*base)

// WithEncryption declares the PII fields and the secrets used to transform
// them at append time. With unconfigured secrets rows stay raw.
func WithEncryption(secrets Secrets, piiFields ...string) Option {
	return func(b *base) {
		b.secrets = secrets
		b.pii = piiFields
	}
}

// WithUsernamePatterns sets the canonicalization rewrites applied to PII
// fields immediately before encryption.
func WithUsernamePatterns(patterns ...UsernamePattern) Option {
	return func(b *base) {
		b.patterns = patterns
	}
}

// WithCodec overrides the artifact codec (default: pretty-printed JSON).
func WithCodec(codec persist.Codec) Option {
	return func(b *base) {
		b.codec = codec
	}
}

// base carries the state shared by all table variants. The variants plug in
// their dedupe behavior through the insert and reset hooks.
type base struct {
	name     string
	rows     []Row
	secrets  Secrets
	pii      []string
	patterns []UsernamePattern
	codec    persist.Codec

	insert func(prepared Row) (Row, bool)
	reset  func()
}

func newBase(name string, opts []Option) base {
	b := base{name: name, codec: persist.NewJSONCodec()}

	for _, opt := range opts {
		opt(&b)
	}

	return b
}

// Name returns the table name.
func (b *base) Name() string {
	return b.name
}

// Len returns the number of stored rows.
func (b *base) Len() int {
	return len(b.rows)
}

// Get returns a deep copy of all stored rows.
func (b *base) Get() []Row {
	out := make([]Row, len(b.rows))

	for i, row := range b.rows {
		out[i] = row.Clone()
	}

	return out
}

// Append prepares and stores one row through the variant's insert hook.
func (b *base) Append(row Row) (Row, bool) {
	return b.insert(b.prepare(row))
}

// Extend appends each row, skipping duplicates.
func (b *base) Extend(rows []Row) {
	for _, row := range rows {
		b.Append(row)
	}
}

// Clear removes all stored rows through the variant's reset hook.
func (b *base) Clear() {
	b.reset()
}

// prepare deep-copies a row and applies canonicalization and encryption to
// the declared PII fields. Already-encrypted rows pass through unchanged, so
// reloading persisted data never double-transforms.
func (b *base) prepare(row Row) Row {
	out := row.Clone()

	if out.Fields == nil {
		out.Fields = map[string]string{}
	}

	if out.Encrypted || !b.secrets.Configured() {
		return out
	}

	for _, field := range b.pii {
		value, ok := out.Fields[field]
		if !ok {
			continue
		}

		out.Fields[field] = b.secrets.Transform(canonicalize(value, b.patterns))
	}

	out.Encrypted = true

	return out
}

// preparePatch transforms the PII fields of a patch without touching the
// encryption marker; the patched row keeps its stored marker.
func (b *base) preparePatch(patch Row) map[string]string {
	prepared := b.prepare(patch)

	return prepared.Fields
}

// Write persists the rows under dir. A pre-existing artifact is merged in
// first: its rows are appended after the in-memory ones, so in-memory rows
// win conflicts. Persistence I/O errors propagate; there is no recovery path
// for corrupted on-disk state.
func (b *base) Write(dir string) error {
	if persist.StateExists(dir, b.name, b.codec) {
		existing, err := b.readRows(dir)
		if err != nil {
			return err
		}

		b.Extend(existing)
	}

	err := persist.SaveState(dir, b.name, b.codec, b.rows)
	if err != nil {
		return fmt.Errorf("write table %s: %w", b.name, err)
	}

	return nil
}

// Load replaces the in-memory rows with the persisted artifact. A missing
// artifact leaves the table empty.
func (b *base) Load(dir string) error {
	b.Clear()

	if !persist.StateExists(dir, b.name, b.codec) {
		return nil
	}

	rows, err := b.readRows(dir)
	if err != nil {
		return err
	}

	b.Extend(rows)

	return nil
}

func (b *base) readRows(dir string) ([]Row, error) {
	var rows []Row

	err := persist.LoadState(dir, b.name, b.codec, &rows)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", b.name, err)
	}

	return rows, nil
}

// Table is the plain variant: a duplicate is a row fully deep-equal to a
// stored one.
type Table struct {
	base
}

// New creates a plain table.
func New(name string, opts ...Option) *Table {
	t := &Table{base: newBase(name, opts)}
	t.insert = t.insertRow
	t.reset = func() { t.rows = nil }

	return t
}

func (t *Table) insertRow(prepared Row) (Row, bool) {
	if _, ok := t.find(prepared); ok {
		return Row{}, false
	}

	t.rows = append(t.rows, prepared)

	return prepared.Clone(), true
}

func (t *Table) find(prepared Row) (int, bool) {
	for i, row := range t.rows {
		if row.Equal(prepared) {
			return i, true
		}
	}

	return 0, false
}

// Has reports whether a fully equal row is stored.
func (t *Table) Has(row Row) bool {
	_, ok := t.find(t.prepare(row))

	return ok
}

// GetRow returns a copy of the stored row equal to the search row.
func (t *Table) GetRow(row Row) (Row, bool) {
	idx, ok := t.find(t.prepare(row))
	if !ok {
		return Row{}, false
	}

	return t.rows[idx].Clone(), true
}

// Update patches the stored row fully equal to the search row.
func (t *Table) Update(search, patch Row) error {
	idx, ok := t.find(t.prepare(search))
	if !ok {
		return ErrRowNotFound
	}

	for k, v := range t.preparePatch(patch) {
		t.rows[idx].Fields[k] = v
	}

	return nil
}
