// Package residency measures how much of a file sits in the page cache.
//
// Probing is not read-only with respect to the system: every page mincore
// reports as cached is touched through a shared mapping so that it becomes
// present in this process's page tables, where /proc/self/pagemap can see it.
// Counts therefore mean "cached, or just faulted in by the probe".
package residency

import "github.com/srodi/showpagemap/pkg/types"

// Mapping is a probed file kept mapped so its pagemap entries can be read.
type Mapping struct {
	Path          string
	Size          int64
	Pages         uint64
	ResidentPages uint64

	data []byte
}

// PageCount returns ceil(size / pageSize).
func PageCount(size int64, pageSize int) uint64 {
	if size <= 0 || pageSize <= 0 {
		return 0
	}
	ps := int64(pageSize)
	return uint64((size + ps - 1) / ps)
}

// Percent is the resident share of the file's pages, 0 for empty files.
func (m *Mapping) Percent() float64 {
	return m.Result().Percent()
}

// Result summarizes the probe for reporting.
func (m *Mapping) Result() types.FileResidency {
	return types.FileResidency{Path: m.Path, Pages: m.Pages, ResidentPages: m.ResidentPages}
}
