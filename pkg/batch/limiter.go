// Package batch bounds paginated iteration over unbounded remote histories.
package batch

// Default limiter parameters.
const (
	// DefaultSize is the default number of items requested per batch.
	DefaultSize = 1000
	// DefaultMaximum is the default hard cap on items requested per run.
	DefaultMaximum = 10000000
)

// Limiter tracks batched iteration state. The total number of items
// requested across a run never exceeds the configured maximum; this is a
// resource-safety valve, not a completeness guarantee.
type Limiter struct {
	size    int
	skip    int
	maximum int
}

// NewLimiter creates a limiter with the given batch size and hard cap.
// Non-positive arguments fall back to the package defaults.
func NewLimiter(size, maximum int) *Limiter {
	if size <= 0 {
		size = DefaultSize
	}

	if maximum <= 0 {
		maximum = DefaultMaximum
	}

	return &Limiter{size: size, maximum: maximum}
}

// Size returns the number of items to request in the next batch.
func (l *Limiter) Size() int {
	return l.size
}

// Skip returns the number of items already requested.
func (l *Limiter) Skip() int {
	return l.skip
}

// Page returns the one-based page index view of the current offset, for
// remote APIs that paginate by page number instead of offset.
func (l *Limiter) Page() int {
	return l.skip/l.size + 1
}

// Check reports whether another batch should be fetched. It is true only if
// the previous batch was non-empty, the batch size is non-zero, and the hard
// cap has not been reached.
func (l *Limiter) Check(hadResults bool) bool {
	return hadResults && l.size != 0 && l.skip+l.size <= l.maximum
}

// Update advances the offset past the current batch. If the next batch would
// overrun the maximum, the batch size is shrunk to the remainder.
func (l *Limiter) Update() {
	l.skip += l.size

	if l.skip+l.size > l.maximum {
		l.size = max(0, l.maximum-l.skip)
	}
}
