//go:build linux
// +build linux

package residency

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/srodi/showpagemap/pkg/types"
)

// sink keeps the page-in reads observable to the compiler.
var sink byte

// Probe maps path read-only and shared, asks mincore which pages are cached and
// faults each cached page into this process. Any failure is returned; callers
// treat it as fatal. Close must be called to unmap.
func Probe(path string, pageSize int) (*Mapping, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOATIME|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file %s", path)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, errors.Wrapf(err, "failed to stat file %s", path)
	}

	m := &Mapping{Path: path, Size: st.Size, Pages: PageCount(st.Size, pageSize)}
	// mmap rejects zero-length mappings.
	if st.Size == 0 {
		return m, nil
	}

	data, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to mmap file %s", path)
	}
	m.data = data

	vec := make([]byte, m.Pages)
	if err := mincore(data, vec); err != nil {
		_ = unix.Munmap(data)
		return nil, errors.Wrapf(err, "failed to mincore file %s", path)
	}

	for i, v := range vec {
		if v&1 == 0 {
			continue
		}
		m.ResidentPages++
		// Offset i*pageSize is always < Size because Pages is rounded up.
		sink += data[i*pageSize]
	}
	return m, nil
}

// mincore fills vec with one byte per page of data; the low bit is set for
// pages in the page cache. x/sys/unix has no wrapper on linux.
func mincore(data, vec []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_MINCORE,
		uintptr(unsafe.Pointer(&data[0])),
		uintptr(len(data)),
		uintptr(unsafe.Pointer(&vec[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

// Range is the virtual span of the mapping in this process, tagged with the
// file path. It is empty for zero-length files.
func (m *Mapping) Range() types.AddressRange {
	if len(m.data) == 0 {
		return types.AddressRange{Tag: m.Path}
	}
	start := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(m.data))))
	return types.AddressRange{Start: start, End: start + uint64(len(m.data)), Tag: m.Path}
}

// Close unmaps the file.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
