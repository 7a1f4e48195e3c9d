// Package counter provides a dense, growable counter array keyed by small
// non-negative integers.
//
// Cgroup inode numbers observed on a host cluster in a usable range, so a flat
// slice is cheaper than a map here. It is not suitable for arbitrary sparse
// 64-bit keys: memory grows with the largest index seen.
package counter

// Table is a zero-initialized counter array. Valid indices are [0, Len()).
// It never shrinks and never resets a stored count.
type Table struct {
	counts []uint64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Increment adds amount at index, growing the table when index is out of range.
// Growth sets capacity to max(index, Len())*1.5 (at least index+1) and
// zero-fills the new tail; existing counts are copied unchanged.
func (t *Table) Increment(index uint64, amount uint64) {
	if index >= uint64(len(t.counts)) {
		t.grow(index)
	}
	t.counts[index] += amount
}

func (t *Table) grow(index uint64) {
	base := max(index, uint64(len(t.counts)))
	size := base + base/2
	if base%2 == 1 {
		size++
	}
	if size <= index {
		size = index + 1
	}
	grown := make([]uint64, size)
	copy(grown, t.counts)
	t.counts = grown
}

// Get returns the count at index, or 0 when index is beyond the table.
func (t *Table) Get(index uint64) uint64 {
	if index >= uint64(len(t.counts)) {
		return 0
	}
	return t.counts[index]
}

// Len is the current capacity.
func (t *Table) Len() int {
	return len(t.counts)
}

// Each calls fn for every non-zero count in ascending index order.
func (t *Table) Each(fn func(index uint64, count uint64)) {
	for i, c := range t.counts {
		if c != 0 {
			fn(uint64(i), c)
		}
	}
}

// NonZero reports how many indices hold a count.
func (t *Table) NonZero() int {
	n := 0
	for _, c := range t.counts {
		if c != 0 {
			n++
		}
	}
	return n
}
