//go:build linux
// +build linux

package fswalk

import (
	"os"
	"syscall"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// InodeOf returns the inode number behind fi. The lstat data from the listing
// is used when present; otherwise the entry is stat'ed explicitly.
// Tests replace it to run against in-memory filesystems.
var InodeOf = func(fs afero.Fs, path string, fi os.FileInfo) (uint64, error) {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Ino, nil
	}
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return 0, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	return st.Ino, nil
}
