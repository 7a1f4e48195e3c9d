// Package kpage reads the kernel's per-frame tables /proc/kpagecount and
// /proc/kpagecgroup. Both are indexed by PFN, 8 bytes per frame.
package kpage

import (
	"encoding/binary"
	"errors"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
)

const entrySize = 8

const (
	countFile  = "kpagecount"
	cgroupFile = "kpagecgroup"
)

// ErrOwnerTableUnavailable means /proc/kpagecgroup could not be opened. Owner
// resolution is load-bearing when requested, so callers treat it as fatal.
var ErrOwnerTableUnavailable = errors.New("kpagecgroup unavailable")

// Source opens each table on first use and keeps the handle for the rest of
// the run. It is not safe for concurrent use.
type Source struct {
	fs     afero.Fs
	root   string
	logger log.Logger

	count      afero.File
	countState openState
	cgroup     afero.File
	buf        [entrySize]byte
}

type openState int

const (
	notOpened openState = iota
	opened
	failed
)

// NewSource reads the tables under procRoot (normally /proc).
func NewSource(fs afero.Fs, procRoot string, logger log.Logger) *Source {
	return &Source{fs: fs, root: procRoot, logger: logger}
}

// ShareCount returns how many times frame is mapped. Any failure yields 0: an
// open failure is logged once and later calls return 0 without retrying.
func (s *Source) ShareCount(frame uint64) uint64 {
	switch s.countState {
	case failed:
		return 0
	case notOpened:
		f, err := s.fs.Open(filepath.Join(s.root, countFile))
		if err != nil {
			s.countState = failed
			level.Warn(s.logger).Log("msg", "share counts unavailable", "file", filepath.Join(s.root, countFile), "err", err)
			return 0
		}
		s.count = f
		s.countState = opened
	}
	v, err := s.readAt(s.count, frame)
	if err != nil {
		level.Debug(s.logger).Log("msg", "kpagecount read failed", "pfn", frame, "err", err)
		return 0
	}
	return v
}

// OwnerID returns the inode of the memory cgroup frame is charged to, 0 for
// none. Failing to open the table returns ErrOwnerTableUnavailable; a failed
// read for one frame returns 0 and no error.
func (s *Source) OwnerID(frame uint64) (int64, error) {
	if s.cgroup == nil {
		f, err := s.fs.Open(filepath.Join(s.root, cgroupFile))
		if err != nil {
			return 0, pkgerrors.Wrap(errors.Join(ErrOwnerTableUnavailable, err), "opening owner table")
		}
		s.cgroup = f
	}
	v, err := s.readAt(s.cgroup, frame)
	if err != nil {
		level.Debug(s.logger).Log("msg", "kpagecgroup read failed", "pfn", frame, "err", err)
		return 0, nil
	}
	return int64(v), nil
}

func (s *Source) readAt(f afero.File, frame uint64) (uint64, error) {
	n, err := f.ReadAt(s.buf[:], int64(frame)*entrySize)
	if n != entrySize {
		if err == nil {
			err = pkgerrors.Errorf("short read of %d bytes", n)
		}
		return 0, err
	}
	return binary.LittleEndian.Uint64(s.buf[:]), nil
}

// Close releases whichever tables were opened.
func (s *Source) Close() error {
	var err error
	if s.count != nil {
		err = errors.Join(err, s.count.Close())
		s.count = nil
		s.countState = notOpened
	}
	if s.cgroup != nil {
		err = errors.Join(err, s.cgroup.Close())
		s.cgroup = nil
	}
	return err
}
