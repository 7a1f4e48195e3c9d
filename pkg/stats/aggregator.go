// Package stats folds decoded pages into run-wide totals.
package stats

import (
	"github.com/srodi/showpagemap/pkg/counter"
	"github.com/srodi/showpagemap/pkg/types"
)

// Aggregator owns the Summary and, when owner tracking is on, the per-cgroup
// resident page table. Counts only ever increase.
type Aggregator struct {
	summary     types.Summary
	owners      *counter.Table
	trackOwners bool
}

// NewAggregator prepares empty totals. trackOwners enables the per-owner table.
func NewAggregator(trackOwners bool) *Aggregator {
	a := &Aggregator{trackOwners: trackOwners}
	if trackOwners {
		a.owners = counter.NewTable()
	}
	return a
}

// Record accounts for one page. Every page counts toward the total; present
// pages count as resident; pages mapped more than once count as shared; present
// pages charged to a cgroup add one to that cgroup's count.
func (a *Aggregator) Record(entry types.PageEntry, shareCount uint64, ownerID int64) {
	a.summary.TotalPages++
	if entry.Present {
		a.summary.ResidentPages++
	}
	if shareCount > 1 {
		a.summary.SharedPages++
	}
	if a.trackOwners && ownerID > 0 && entry.Present {
		a.owners.Increment(uint64(ownerID), 1)
	}
}

// Summary returns the totals so far.
func (a *Aggregator) Summary() types.Summary {
	return a.summary
}

// Owners returns the per-owner table, or nil when owner tracking is off.
func (a *Aggregator) Owners() *counter.Table {
	return a.owners
}

// TracksOwners reports whether the per-owner table is populated.
func (a *Aggregator) TracksOwners() bool {
	return a.trackOwners
}
