package table

import "strings"

// linkSeparator joins tuple values into one index key. The unit separator
// cannot occur in sane field values.
const linkSeparator = "\x1f"

// LinkTable is the link-indexed variant: rows are unique on an ordered tuple
// of fields. Semantics otherwise match KeyTable.
type LinkTable struct {
	base

	keys  []string
	index map[string]int
}

// NewLink creates a link-indexed table unique on the ordered field tuple.
func NewLink(name string, keys []string, opts ...Option) *LinkTable {
	t := &LinkTable{base: newBase(name, opts), keys: keys, index: map[string]int{}}
	t.insert = t.insertRow
	t.reset = func() {
		t.rows = nil
		t.index = map[string]int{}
	}

	return t
}

// Keys returns the ordered uniqueness tuple.
func (t *LinkTable) Keys() []string {
	return t.keys
}

func (t *LinkTable) linkKey(row Row) string {
	values := make([]string, len(t.keys))

	for i, k := range t.keys {
		values[i] = row.Fields[k]
	}

	return strings.Join(values, linkSeparator)
}

func (t *LinkTable) insertRow(prepared Row) (Row, bool) {
	k := t.linkKey(prepared)

	if _, ok := t.index[k]; ok {
		return Row{}, false
	}

	t.index[k] = len(t.rows)
	t.rows = append(t.rows, prepared)

	return prepared.Clone(), true
}

func (t *LinkTable) find(row Row) (int, bool) {
	idx, ok := t.index[t.linkKey(t.prepare(row))]

	return idx, ok
}

// Has reports whether a row with the search row's key tuple is stored.
func (t *LinkTable) Has(row Row) bool {
	_, ok := t.find(row)

	return ok
}

// GetRow returns a copy of the stored row with the search row's key tuple.
func (t *LinkTable) GetRow(row Row) (Row, bool) {
	idx, ok := t.find(row)
	if !ok {
		return Row{}, false
	}

	return t.rows[idx].Clone(), true
}

// Update patches the stored row with the search row's key tuple. The tuple
// must already be present and the patch may not change any of its fields.
func (t *LinkTable) Update(search, patch Row) error {
	idx, ok := t.find(search)
	if !ok {
		return ErrRowNotFound
	}

	patched := t.preparePatch(patch)

	for _, k := range t.keys {
		value, present := patched[k]
		if present && value != t.rows[idx].Fields[k] {
			return ErrKeyChanged
		}
	}

	for k, v := range patched {
		t.rows[idx].Fields[k] = v
	}

	return nil
}
