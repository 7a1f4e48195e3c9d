package report

import (
	"github.com/pkg/errors"

	"github.com/srodi/showpagemap/pkg/counter"
)

// Namer turns an owner id into a display path.
type Namer interface {
	Name(inode uint64) (string, error)
}

// OwnerRow is one line of the per-cgroup table.
type OwnerRow struct {
	ID    uint64 `yaml:"id"`
	Path  string `yaml:"path"`
	Pages uint64 `yaml:"resident_pages"`
	Bytes uint64 `yaml:"bytes"`
}

// OwnerRows lists every owner with a non-zero count in ascending id order.
// Names are resolved here, once per owner. A nil table yields no rows; a
// naming error is returned as is and should end the run.
func OwnerRows(owners *counter.Table, pageSize int, namer Namer) ([]OwnerRow, error) {
	if owners == nil {
		return nil, nil
	}
	rows := make([]OwnerRow, 0, owners.NonZero())
	owners.Each(func(id, count uint64) {
		rows = append(rows, OwnerRow{ID: id, Pages: count, Bytes: count * uint64(pageSize)})
	})
	for i := range rows {
		name, err := namer.Name(rows[i].ID)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving cgroup %d", rows[i].ID)
		}
		rows[i].Path = name
	}
	return rows, nil
}
