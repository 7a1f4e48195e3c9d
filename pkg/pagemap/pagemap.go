// Package pagemap decodes /proc/<pid>/pagemap entries.
//
// Each virtual page has one little-endian 64-bit entry at offset
// (address / pagesize) * 8. See Documentation/admin-guide/mm/pagemap.rst.
package pagemap

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/srodi/showpagemap/pkg/types"
)

// EntrySize is the width of one pagemap entry in bytes.
const EntrySize = 8

const (
	pfnMask      = 1<<55 - 1
	softDirtyBit = 55
	exclusiveBit = 56
	fileBit      = 61
	swapBit      = 62
	presentBit   = 63
)

// ErrShortRead is returned when fewer than EntrySize bytes came back.
var ErrShortRead = errors.New("short pagemap read")

// Decode splits a raw pagemap entry into its fields.
func Decode(address, raw uint64) types.PageEntry {
	return types.PageEntry{
		VirtualAddress: address,
		FrameNumber:    raw & pfnMask,
		SoftDirty:      raw>>softDirtyBit&1 == 1,
		ExclusiveMap:   raw>>exclusiveBit&1 == 1,
		SharedOrFile:   raw>>fileBit&1 == 1,
		Swapped:        raw>>swapBit&1 == 1,
		Present:        raw>>presentBit&1 == 1,
	}
}

// Reader performs one positioned read per page against a pagemap file.
type Reader struct {
	src      io.ReaderAt
	pageSize uint64
	buf      [EntrySize]byte
	aborted  int
}

// NewReader wraps an open pagemap file.
func NewReader(src io.ReaderAt, pageSize uint64) *Reader {
	return &Reader{src: src, pageSize: pageSize}
}

// Read fetches and decodes the entry for the page containing address.
// Partial data is never decoded.
func (r *Reader) Read(address uint64) (types.PageEntry, error) {
	off := int64(address/r.pageSize) * EntrySize
	n, err := r.src.ReadAt(r.buf[:], off)
	if n != EntrySize {
		if err == nil || err == io.EOF {
			err = ErrShortRead
		}
		return types.PageEntry{}, errors.Wrapf(err, "pagemap entry for %#x at offset %d", address, off)
	}
	return Decode(address, binary.LittleEndian.Uint64(r.buf[:])), nil
}

// WalkRange decodes every page of rng in address order and hands each entry to
// fn. A failed read is logged and ends this range only; WalkRange then returns
// nil. Errors from fn stop the walk and are returned as is.
func (r *Reader) WalkRange(logger log.Logger, rng types.AddressRange, fn func(types.PageEntry) error) error {
	for addr := rng.Start; addr < rng.End; addr += r.pageSize {
		entry, err := r.Read(addr)
		if err != nil {
			r.aborted++
			level.Warn(logger).Log("msg", "stopping range after pagemap read failure",
				"start", fmt.Sprintf("%#x", rng.Start), "end", fmt.Sprintf("%#x", rng.End), "err", err)
			return nil
		}
		if err := fn(entry); err != nil {
			return err
		}
		// A range ending near 2^64 must not wrap back to low addresses.
		if addr+r.pageSize < addr {
			break
		}
	}
	return nil
}

// Aborted counts ranges cut short by a failed read.
func (r *Reader) Aborted() int {
	return r.aborted
}
