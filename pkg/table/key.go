package table

// KeyTable is the key-indexed variant: rows are unique on a single named
// field. A duplicate-key append is a no-op; updates require the key to
// pre-exist and forbid changing it.
type KeyTable struct {
	base

	key   string
	index map[string]int
}

// NewKey creates a key-indexed table unique on the given field.
func NewKey(name, key string, opts ...Option) *KeyTable {
	t := &KeyTable{base: newBase(name, opts), key: key, index: map[string]int{}}
	t.insert = t.insertRow
	t.reset = func() {
		t.rows = nil
		t.index = map[string]int{}
	}

	return t
}

// Key returns the name of the uniqueness field.
func (t *KeyTable) Key() string {
	return t.key
}

func (t *KeyTable) insertRow(prepared Row) (Row, bool) {
	k := prepared.Fields[t.key]

	if _, ok := t.index[k]; ok {
		return Row{}, false
	}

	t.index[k] = len(t.rows)
	t.rows = append(t.rows, prepared)

	return prepared.Clone(), true
}

func (t *KeyTable) find(row Row) (int, bool) {
	idx, ok := t.index[t.prepare(row).Fields[t.key]]

	return idx, ok
}

// Has reports whether a row with the search row's key is stored.
func (t *KeyTable) Has(row Row) bool {
	_, ok := t.find(row)

	return ok
}

// GetRow returns a copy of the stored row with the search row's key.
func (t *KeyTable) GetRow(row Row) (Row, bool) {
	idx, ok := t.find(row)
	if !ok {
		return Row{}, false
	}

	return t.rows[idx].Clone(), true
}

// Update patches the stored row with the search row's key. The key must
// already be present and the patch may not change it.
func (t *KeyTable) Update(search, patch Row) error {
	idx, ok := t.find(search)
	if !ok {
		return ErrRowNotFound
	}

	patched := t.preparePatch(patch)

	value, present := patched[t.key]
	if present && value != t.rows[idx].Fields[t.key] {
		return ErrKeyChanged
	}

	for k, v := range patched {
		t.rows[idx].Fields[k] = v
	}

	return nil
}
