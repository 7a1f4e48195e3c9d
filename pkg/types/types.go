package types

// UnknownOwner marks a page whose owning cgroup was not looked up.
const UnknownOwner int64 = -1

// AddressRange is a half-open, page-aligned span of virtual addresses.
type AddressRange struct {
	Start uint64
	End   uint64
	// Tag is the mapping name or probed file path. Empty when names were not requested.
	Tag string
}

// Pages reports how many pages of the given size the range touches.
func (r AddressRange) Pages(pageSize uint64) uint64 {
	if r.End <= r.Start || pageSize == 0 {
		return 0
	}
	return (r.End - r.Start + pageSize - 1) / pageSize
}

// PageEntry is one decoded pagemap record.
type PageEntry struct {
	VirtualAddress uint64
	// FrameNumber is only meaningful when Present is set; swapped pages carry a swap slot here.
	FrameNumber  uint64
	Present      bool
	Swapped      bool
	ExclusiveMap bool
	SoftDirty    bool
	SharedOrFile bool
}

// FrameAttributes holds the per-frame lookups for one page.
type FrameAttributes struct {
	ShareCount uint64
	OwnerID    int64
}

// PageRecord is what the detail reporter receives for every decoded page.
type PageRecord struct {
	Entry PageEntry
	Frame FrameAttributes
	Tag   string
}

// Summary accumulates page counts across every target in one run.
type Summary struct {
	TotalPages    uint64 `yaml:"total_pages"`
	ResidentPages uint64 `yaml:"resident_pages"`
	SharedPages   uint64 `yaml:"shared_pages"`
}

// FileResidency is the outcome of probing one file in directory mode.
type FileResidency struct {
	Path          string `yaml:"path"`
	Pages         uint64 `yaml:"pages"`
	ResidentPages uint64 `yaml:"resident_pages"`
}

// Percent is the resident share of the file's pages, 0 for empty files.
func (f FileResidency) Percent() float64 {
	if f.Pages == 0 {
		return 0
	}
	return float64(f.ResidentPages) / float64(f.Pages) * 100
}

// TargetInfo describes a process being inspected, for the per-target header.
type TargetInfo struct {
	PID      int    `yaml:"pid"`
	Comm     string `yaml:"comm"`
	RSSBytes uint64 `yaml:"rss_bytes"`
}
