// Package vma turns a /proc/<pid>/maps listing into address ranges.
package vma

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/srodi/showpagemap/pkg/types"
)

// nameField is the zero-based index of the pathname column.
const nameField = 5

// Extractor yields one AddressRange per line of a maps listing. It is lazy and
// can be consumed only once:
//
//	for ex.Next() { r := ex.Range() }
//	if err := ex.Err(); err != nil { ... }
type Extractor struct {
	r         *bufio.Reader
	withNames bool
	cur       types.AddressRange
	err       error
	done      bool
}

// NewExtractor reads the listing from r. When withNames is set each range is
// tagged with the mapping's pathname, if the line has one.
func NewExtractor(r io.Reader, withNames bool) *Extractor {
	return &Extractor{r: bufio.NewReader(r), withNames: withNames}
}

// Next advances to the next range. It returns false at end of input or on a
// read error; check Err afterwards.
func (e *Extractor) Next() bool {
	if e.done {
		return false
	}
	for {
		line, err := e.r.ReadBytes('\n')
		if err != nil {
			e.done = true
			// A trailing partial line is dropped.
			if err != io.EOF {
				e.err = errors.Wrap(err, "reading maps")
			}
			return false
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		e.cur = ParseLine(line, e.withNames)
		return true
	}
}

// Range returns the range produced by the last successful Next.
func (e *Extractor) Range() types.AddressRange {
	return e.cur
}

// Err returns the first read error, if any.
func (e *Extractor) Err() error {
	return e.err
}

// ParseLine decodes one maps line of the form
// "<start>-<end> <perms> <offset> <dev> <inode> [<path>]".
//
// Each address is located by scanning for its delimiter and then accumulated
// hex digit by hex digit; a non-hex character ends that number early instead of
// failing the line. Malformed input can therefore produce a truncated range.
func ParseLine(line []byte, withName bool) types.AddressRange {
	var rng types.AddressRange

	addrs := line
	if sp := bytes.IndexByte(line, ' '); sp >= 0 {
		addrs = line[:sp]
	}
	lo, hi, found := bytes.Cut(addrs, []byte{'-'})
	rng.Start = parseHex(lo)
	if found {
		rng.End = parseHex(hi)
	}

	if withName {
		rng.Tag = pathname(line)
	}
	return rng
}

func parseHex(field []byte) uint64 {
	var v uint64
	for _, c := range field {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		default:
			return v
		}
		v = v<<4 | uint64(d)
	}
	return v
}

// pathname returns everything after the inode column, trimmed, so names with
// spaces and "(deleted)" suffixes stay whole.
func pathname(line []byte) string {
	rest := line
	for field := 0; field < nameField; field++ {
		rest = bytes.TrimLeft(rest, " \t")
		i := bytes.IndexAny(rest, " \t")
		if i < 0 {
			return ""
		}
		rest = rest[i:]
	}
	return string(bytes.TrimSpace(rest))
}
